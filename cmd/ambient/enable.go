package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/config"
	"github.com/runebook/ambient/internal/statusfile"
)

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turn observation on",
	Long:  `Enable event capture and analysis. Nothing is recorded while the agent is disabled.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := dataDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := config.SetEnabled(dir, true); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Publish an initial idle surface so pollers have something to
		// read before the first analysis runs.
		if writer, err := statusfile.NewWriter(config.StatusDir(dir)); err == nil {
			if err := writer.Reset(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to publish initial status: %v\n", err)
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Observation enabled. Data stays in %s\n", green("✓"), dir)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turn observation off",
	Long:  `Disable event capture and analysis. Previously stored events are kept until cleaned up.`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := dataDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := config.SetEnabled(dir, false); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if writer, err := statusfile.NewWriter(config.StatusDir(dir)); err == nil {
			if err := writer.Reset(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to reset status: %v\n", err)
			}
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		fmt.Printf("%s Observation disabled\n", gray("○"))
	},
}

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}
