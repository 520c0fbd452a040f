package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/config"
	"github.com/runebook/ambient/internal/types"
)

var (
	suggestLast    bool
	suggestCommand string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Show the current suggestions",
	Long: `Print the top suggestion for the most recently analyzed command.
Use --last for the full ranked batch, or --command for a specific command's batch.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		dir, err := dataDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !config.IsEnabled(dir) {
			fmt.Fprintln(os.Stderr, "Observation is disabled. Run 'ambient enable' first.")
			os.Exit(1)
		}

		store, _, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		var suggestions []*types.Suggestion
		if suggestCommand != "" {
			suggestions, err = store.GetSuggestions(ctx, suggestCommand)
		} else {
			suggestions, err = store.GetLatestSuggestions(ctx, 0)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load suggestions: %v\n", err)
			os.Exit(1)
		}

		if len(suggestions) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No suggestions yet."))
			os.Exit(1)
		}

		if suggestLast {
			for i, s := range suggestions {
				printSuggestion(i+1, s)
			}
			return
		}
		printSuggestion(1, suggestions[0])
	},
}

func printSuggestion(rank int, s *types.Suggestion) {
	priorityColor := color.New(color.FgHiBlack).SprintFunc()
	switch s.Priority {
	case types.PriorityHigh:
		priorityColor = color.New(color.FgRed, color.Bold).SprintFunc()
	case types.PriorityMedium:
		priorityColor = color.New(color.FgYellow).SprintFunc()
	}

	bold := color.New(color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("%d. %s %s\n", rank, priorityColor(fmt.Sprintf("[%s]", s.Priority)), bold(s.Title))
	if s.Description != "" {
		fmt.Printf("   %s\n", s.Description)
	}
	if s.Snippet != "" {
		fmt.Printf("   %s %s\n", gray("$"), s.Snippet)
	}
	fmt.Printf("   %s\n", gray(fmt.Sprintf("%s · confidence %.0f%%", s.Source, s.Confidence*100)))
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().BoolVar(&suggestLast, "last", false, "Show the full ranked batch for the most recent command")
	suggestCmd.Flags().StringVar(&suggestCommand, "command", "", "Show suggestions for a specific command ID")
}
