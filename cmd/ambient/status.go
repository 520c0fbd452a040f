package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/config"
	"github.com/runebook/ambient/internal/provider"
	"github.com/runebook/ambient/internal/statusfile"
	"github.com/runebook/ambient/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent status",
	Long:  `Display whether observation is enabled, the pipeline state, and current suggestion counts.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := dataDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Ambient Agent Status ==="))

		if !config.IsEnabled(dir) {
			fmt.Printf("  %s Observation disabled\n\n", gray("○"))
			fmt.Printf("  Run %s to start capturing.\n\n", yellow("ambient enable"))
			os.Exit(1)
		}
		fmt.Printf("  %s Observation enabled\n", green("●"))

		status, err := statusfile.ReadStatus(config.StatusDir(dir))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read status surface: %v\n", err)
			os.Exit(1)
		}

		stateColor := gray
		switch status.Status {
		case types.StateAnalyzing:
			stateColor = yellow
		case types.StateIssuesFound:
			stateColor = red
		}
		fmt.Printf("  Pipeline:  %s\n", stateColor(string(status.Status)))
		fmt.Printf("  Suggestions: %d (%d high priority)\n", status.SuggestionCount, status.HighPriorityCount)

		providerCfg, err := provider.LoadConfig(config.ProviderConfigPath(dir))
		if err != nil {
			fmt.Printf("  Provider:  %s\n", red(fmt.Sprintf("config error: %v", err)))
		} else if !providerCfg.Enabled {
			fmt.Printf("  Provider:  %s\n", gray("none (heuristics only)"))
		} else {
			fmt.Printf("  Provider:  %s\n", green(string(providerCfg.Kind)))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
