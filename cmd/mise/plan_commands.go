package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"mise-planner/internal/core/planner"
	"mise-planner/internal/core/recipe"
	"mise-planner/internal/core/shopping"

	"github.com/spf13/cobra"
)

// settingsFlags 以預設設定為底的命令列覆寫
type settingsFlags struct {
	settings planner.Settings
	mode     string
	single   bool
}

func bindSettingsFlags(cmd *cobra.Command) *settingsFlags {
	sf := &settingsFlags{settings: planner.DefaultSettings()}
	sf.mode = string(sf.settings.Mode)
	f := cmd.Flags()
	f.StringVar(&sf.settings.Lang, "lang", sf.settings.Lang, "Display language (es, ca)")
	f.StringVar(&sf.mode, "mode", sf.mode, "Cooking mode (lazy, normal, chef)")
	f.BoolVar(&sf.single, "single", false, "Use 2-serving quantities")
	f.IntVar(&sf.settings.HouseholdSize, "household", sf.settings.HouseholdSize, "Household size")
	f.IntVar(&sf.settings.MaxTimeMin, "max-time", sf.settings.MaxTimeMin, "Maximum minutes")
	f.IntVar(&sf.settings.MaxCostTier, "max-cost", sf.settings.MaxCostTier, "Maximum cost tier (1-3)")
	f.IntVar(&sf.settings.NoRepeatDays, "no-repeat-days", sf.settings.NoRepeatDays, "Skip recipes cooked in the last N days")
	return sf
}

func (sf *settingsFlags) resolve() (planner.Settings, error) {
	s := sf.settings
	s.Mode = planner.Mode(strings.ToLower(sf.mode))
	if sf.single {
		s.DoublePortions = false
	}
	return s, s.Validate()
}

func newPickCommand(ctx *commandContext) *cobra.Command {
	var sf *settingsFlags

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick tonight's recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.resolve()
			if err != nil {
				return err
			}
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}

			picked, err := svc.Picker.PickToday(cmd.Context(), svc.Recipes, svc.History, settings, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, picked)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Minutes", "Cost", "Tags"},
				[][]string{{picked.ID, picked.TitleIn(settings.Lang), strconv.Itoa(picked.TimeMin), strconv.Itoa(picked.CostTier), strings.Join(picked.Tags, ",")}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	sf = bindSettingsFlags(cmd)
	return cmd
}

func newShopCommand(ctx *commandContext) *cobra.Command {
	var (
		sf     *settingsFlags
		pantry []string
	)

	cmd := &cobra.Command{
		Use:   "shop <recipe-id>...",
		Short: "Build a shopping list for one or more recipes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := sf.resolve()
			if err != nil {
				return err
			}
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}

			items, err := shopping.BuildList(cmd.Context(), svc.Recipes, args, settings, shopping.NewPantrySet(pantry...))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, items)
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.Category, it.Name, formatQty(it.Qty, it.QtyText, it.Unit)})
			}
			fmt.Fprintln(out, renderTable([]string{"Category", "Item", "Quantity"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	sf = bindSettingsFlags(cmd)
	cmd.Flags().StringSliceVar(&pantry, "pantry", nil, "Ingredients already at home")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Cooking history",
	}

	var at string
	add := &cobra.Command{
		Use:   "add <recipe-id>",
		Short: "Mark a recipe as cooked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cookedAt := time.Now()
			if at != "" {
				t, err := time.Parse("2006-01-02", at)
				if err != nil {
					return fmt.Errorf("invalid --at date: %w", err)
				}
				cookedAt = t
			}
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			if _, err := svc.Recipes.Get(cmd.Context(), args[0]); err != nil {
				return err
			}
			entry, err := svc.History.MarkCooked(cmd.Context(), args[0], cookedAt)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as cooked on %s\n", entry.RecipeID, entry.CookedAt.Format("2006-01-02"))
			return nil
		},
	}
	add.Flags().StringVar(&at, "at", "", "Date cooked (YYYY-MM-DD, default today)")

	var days int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show recently cooked recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			entries, err := svc.History.Since(cmd.Context(), time.Now().AddDate(0, 0, -days))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.CookedAt.Format("2006-01-02 15:04"), e.RecipeID})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Cooked at", "Recipe"}, rows, nil))
			return nil
		},
	}
	list.Flags().IntVar(&days, "days", 30, "How many days back")

	cmd.AddCommand(add, list)
	return cmd
}

func newRecipesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "List and manage stored recipes",
	}

	var (
		source string
		all    bool
		limit  int
		lang   string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			recipes, err := svc.Recipes.List(cmd.Context(), recipe.Filter{Source: source, ActiveOnly: !all, Limit: limit})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), recipes)
			}
			rows := make([][]string, 0, len(recipes))
			for i := range recipes {
				r := &recipes[i]
				rows = append(rows, []string{
					r.ID, r.TitleIn(lang), strconv.Itoa(r.TimeMin), strconv.Itoa(r.CostTier),
					yesNo(r.ImageURL != nil && *r.ImageURL != ""), yesNo(r.Active),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Title", "Minutes", "Cost", "Image", "Active"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	list.Flags().StringVar(&source, "source", "", "Only recipes from this source")
	list.Flags().BoolVar(&all, "all", false, "Include inactive recipes")
	list.Flags().IntVar(&limit, "limit", 0, "Maximum rows (0: all)")
	list.Flags().StringVar(&lang, "lang", recipe.DefaultLang, "Title language")

	setActive := func(use string, active bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <recipe-id>",
			Short: strings.ToUpper(use[:1]) + use[1:] + " a recipe for picking",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := ctx.ensureServices()
				if err != nil {
					return err
				}
				if err := svc.Recipes.SetActive(cmd.Context(), args[0], active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s active: %s\n", args[0], yesNo(active))
				return nil
			},
		}
	}

	cmd.AddCommand(list, setActive("activate", true), setActive("deactivate", false))
	return cmd
}
