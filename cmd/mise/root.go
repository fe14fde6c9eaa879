package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mise",
		Short:         "Household dinner planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&ctx.jsonFlag, "json", false, "Print results as JSON")

	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newBackfillCommand(ctx))
	rootCmd.AddCommand(newPickCommand(ctx))
	rootCmd.AddCommand(newShopCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newRecipesCommand(ctx))
	rootCmd.AddCommand(newVocabularyCommands(ctx)...)

	return rootCmd
}

// run 執行命令並在結束時關閉資源，失敗的命令也會關閉
func run(ctx context.Context, cmdCtx *commandContext, args []string) error {
	defer cmdCtx.close()

	root := newRootCommand(cmdCtx)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
