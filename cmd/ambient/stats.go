package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/events"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event store statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		stats, err := store.GetStats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan("=== Event Store ==="))
		fmt.Printf("  Events:      %d\n", stats.TotalEvents)
		fmt.Printf("  Sessions:    %d\n", stats.SessionCount)
		fmt.Printf("  Suggestions: %d\n", stats.Suggestions)

		if len(stats.EventsByType) > 0 {
			fmt.Println("\n  By type:")
			keys := make([]string, 0, len(stats.EventsByType))
			for t := range stats.EventsByType {
				keys = append(keys, string(t))
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Printf("    %-16s %d\n", key, stats.EventsByType[events.EventType(key)])
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
