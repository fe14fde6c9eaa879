package main

import (
	"fmt"
	"strconv"
	"strings"

	"mise-planner/internal/core/catalog"
	"mise-planner/internal/core/ingest"
	"mise-planner/internal/pkg/common"

	"github.com/spf13/cobra"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		page    int
		perPage int
		search  string
		tag     int
		menu    string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a catalogue page or a weekly menu",
		Example: `  mise ingest --page 2 --per-page 50
  mise ingest --search pollo
  mise ingest --menu 202542`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.requireCatalog()
			if err != nil {
				return err
			}

			var report *ingest.PageReport
			if menu = strings.TrimSpace(menu); menu != "" {
				if len(menu) != 6 {
					return fmt.Errorf("menu must be YYYYWW, got %q", menu)
				}
				report, err = svc.Orchestrator.IngestMenu(cmd.Context(), menu)
			} else {
				report, err = svc.Orchestrator.IngestPage(cmd.Context(), catalog.ListOptions{
					Search:  strings.TrimSpace(search),
					Tag:     tag,
					Page:    page,
					PerPage: perPage,
				})
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "Page %d/%d (%d recipes in catalogue)\n", report.Page, report.TotalPages, report.TotalRecipes)
			printReport(cmd, &report.Report)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Catalogue page")
	cmd.Flags().IntVar(&perPage, "per-page", 50, "Recipes per page")
	cmd.Flags().StringVar(&search, "search", "", "Search term")
	cmd.Flags().IntVar(&tag, "tag", 0, "Catalogue tag id")
	cmd.Flags().StringVar(&menu, "menu", "", "Weekly menu (YYYYWW)")
	return cmd
}

func printReport(cmd *cobra.Command, r *ingest.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported: %d  Skipped: %d  Failed: %d\n", r.Imported, r.Skipped, len(r.Failed))
	if len(r.Failed) == 0 {
		return
	}
	rows := make([][]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		rows = append(rows, []string{strconv.Itoa(f.ID), f.Name, f.Reason})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Reason"}, rows, []columnAlignment{alignRight}))
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var (
		ids    []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Re-infer tags from ingredients and titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			report, err := svc.Orchestrator.Classify(cmd.Context(), ids, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				return writeJSON(out, report)
			}
			fmt.Fprintf(out, "Recipes: %d  Changed: %d  Dry run: %s\n", report.Total, report.Classified, yesNo(report.DryRun))
			if len(report.Changes) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(report.Changes))
			for _, ch := range report.Changes {
				rows = append(rows, []string{ch.ID, strings.Join(ch.OldTags, ","), strings.Join(ch.NewTags, ",")})
			}
			fmt.Fprintln(out, renderTable([]string{"Recipe", "Old tags", "New tags"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Recipe ids (default: all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without saving")
	return cmd
}

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fill missing images or ingredient quantities",
	}

	var limit int
	run := func(kind string) *cobra.Command {
		return &cobra.Command{
			Use:   kind,
			Short: "Backfill " + kind,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := ctx.requireCatalog()
				if err != nil {
					return err
				}
				fn := svc.Orchestrator.BackfillImages
				if kind == "quantities" {
					fn = svc.Orchestrator.BackfillQuantities
				}

				ndjson := common.NewNDJSONWriter(cmd.OutOrStdout(), nil)
				emit := func(p ingest.Progress) error {
					if ctx.jsonOutput() {
						return ndjson.Write(p)
					}
					printProgress(cmd, p)
					return nil
				}
				_, err = fn(cmd.Context(), limit, emit)
				return err
			},
		}
	}

	cmd.PersistentFlags().IntVar(&limit, "limit", 0, "Process at most this many recipes (0: all)")
	cmd.AddCommand(run("images"), run("quantities"))
	return cmd
}

func printProgress(cmd *cobra.Command, p ingest.Progress) {
	out := cmd.OutOrStdout()
	switch p.Event {
	case ingest.EventStart:
		fmt.Fprintf(out, "%d recipes to check\n", p.Total)
	case ingest.EventItem:
		line := fmt.Sprintf("[%d] %-24s %s", p.Index, p.Status, p.ID)
		if p.Title != "" {
			line += "  " + p.Title
		}
		if p.Detail != "" {
			line += "  (" + p.Detail + ")"
		}
		fmt.Fprintln(out, line)
	case ingest.EventDone:
		fmt.Fprintln(out, renderTable(
			[]string{"Total", "Needs update", "Updated", "Failed"},
			[][]string{{strconv.Itoa(p.Total), strconv.Itoa(p.NeedsUpdate), strconv.Itoa(p.Updated), strconv.Itoa(p.Failed)}},
			[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
		))
	}
}
