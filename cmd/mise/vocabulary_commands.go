package main

import (
	"fmt"
	"strconv"

	"mise-planner/internal/core/tags"

	"github.com/spf13/cobra"
)

func newVocabularyCommands(ctx *commandContext) []*cobra.Command {
	tagsCmd := &cobra.Command{
		Use:   "tags",
		Short: "List catalogue tags and their planner slugs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.requireCatalog()
			if err != nil {
				return err
			}
			list, err := svc.Vocabulary.Tags(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list))
			for _, t := range list {
				slug := "-"
				if mapped := tags.MapCatalogTags([]string{t.Name}); len(mapped) > 0 {
					slug = mapped[0]
				}
				rows = append(rows, []string{strconv.Itoa(t.ID), t.Name, slug})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Slug"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	allergensCmd := &cobra.Command{
		Use:   "allergens",
		Short: "List catalogue allergens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.requireCatalog()
			if err != nil {
				return err
			}
			list, err := svc.Vocabulary.Allergens(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list))
			for _, a := range list {
				rows = append(rows, []string{strconv.Itoa(a.ID), a.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	return []*cobra.Command{tagsCmd, allergensCmd}
}
