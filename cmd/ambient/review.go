package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/analysis"
	"github.com/runebook/ambient/internal/sanitize"
)

var reviewCmd = &cobra.Command{
	Use:   "review <command-id>",
	Short: "Preview what a provider would receive",
	Long: `Print the sanitized context for a stored command exactly as it would
be transmitted to an analysis provider. Use this before acknowledging
the review gate.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		summary, err := analysis.BuildSummary(ctx, store, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if summary == nil {
			fmt.Fprintf(os.Stderr, "No complete record found for command %s\n", args[0])
			os.Exit(1)
		}

		sanitized := sanitize.New().Sanitize(sanitize.AnalysisContext{
			Command:  summary.Command,
			Args:     summary.Args,
			Cwd:      summary.Cwd,
			ExitCode: summary.ExitCode,
			Stdout:   summary.Stdout,
			Stderr:   summary.Stderr,
		})

		fmt.Println(sanitize.FormatForReview(sanitized))
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
