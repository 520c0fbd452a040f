package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/config"
)

var cleanupAll bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old events",
	Long: `Run the retention sweep: delete events older than the retention
period and trim the log to the global event limit. With --all, delete
every stored event.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, _, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		green := color.New(color.FgGreen).SprintFunc()

		if cleanupAll {
			deleted, err := store.ClearEvents(ctx, time.Time{})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Deleted all %d events\n", green("✓"), deleted)
			return
		}

		retention, err := config.RetentionConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		expired, err := store.ClearEvents(ctx, retention.Cutoff(time.Now()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		trimmed, err := store.TrimEvents(ctx, retention.GlobalLimitEvents)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("%s Deleted %d expired events, trimmed %d over the limit\n", green("✓"), expired, trimmed)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupAll, "all", false, "Delete every stored event")
}
