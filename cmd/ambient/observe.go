package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/analysis"
	"github.com/runebook/ambient/internal/config"
	"github.com/runebook/ambient/internal/events"
	"github.com/runebook/ambient/internal/provider"
	"github.com/runebook/ambient/internal/statusfile"
	"github.com/runebook/ambient/internal/storage"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Consume terminal events from stdin",
	Long: `Read newline-delimited JSON events from shell hooks on stdin, store
them, and analyze each command as its exit status arrives. Runs until
stdin closes or the session ends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dir, err := dataDir()
		if err != nil {
			return err
		}
		if !config.IsEnabled(dir) {
			fmt.Fprintln(os.Stderr, "Observation is disabled. Run 'ambient enable' first.")
			os.Exit(1)
		}

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		analyzer, err := buildAnalyzer(dir, store)
		if err != nil {
			return err
		}

		go runRetentionSweeps(ctx, store)

		return observe(ctx, os.Stdin, store, analyzer)
	},
}

// buildAnalyzer assembles the pipeline from the on-disk provider config.
// A broken provider config degrades to heuristics only rather than
// stopping capture.
func buildAnalyzer(dir string, store storage.Storage) (*analysis.Analyzer, error) {
	providerCfg, err := provider.LoadConfig(config.ProviderConfigPath(dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, continuing with heuristics only\n", err)
		providerCfg = nil
	}

	var backend provider.Provider
	safety := provider.SafetyConfig{}
	timeout := provider.DefaultConfig().Timeout
	if providerCfg != nil {
		backend, err = provider.New(providerCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to build provider: %v, continuing with heuristics only\n", err)
			backend = nil
		}
		safety = providerCfg.Safety
		timeout = providerCfg.Timeout
	}

	reviewGranted, _ := strconv.ParseBool(os.Getenv("AMBIENT_REVIEW_ACKNOWLEDGED"))

	publisher, err := statusfile.NewWriter(config.StatusDir(dir))
	if err != nil {
		return nil, err
	}

	return analysis.New(analysis.Config{
		Store:         store,
		Provider:      backend,
		Safety:        safety,
		Timeout:       timeout,
		ReviewGranted: reviewGranted,
		Publisher:     publisher,
	})
}

// runRetentionSweeps deletes expired events on startup and then on the
// configured interval until ctx is canceled.
func runRetentionSweeps(ctx context.Context, store storage.Storage) {
	retention, err := config.RetentionConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid retention config: %v, sweeps disabled\n", err)
		return
	}
	if !retention.CleanupEnabled {
		return
	}

	sweep := func() {
		if _, err := store.ClearEvents(ctx, retention.Cutoff(time.Now())); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: retention sweep failed: %v\n", err)
			return
		}
		if _, err := store.TrimEvents(ctx, retention.GlobalLimitEvents); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: event trim failed: %v\n", err)
		}
	}
	sweep()

	ticker := time.NewTicker(time.Duration(retention.CleanupIntervalHours) * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

// observe is the capture loop. Persistence failures are reported but do
// not stop the loop: missing a suggestion beats killing the stream.
// Analysis runs fire-and-forget per exit status; the loop never blocks
// on them, so teardown events drain at stream speed. In-flight runs are
// awaited only after the stream closes.
func observe(ctx context.Context, r io.Reader, store storage.Storage, analyzer *analysis.Analyzer) error {
	var inflight sync.WaitGroup

	err := events.ParseStream(r,
		func(event *events.TerminalEvent) error {
			if err := store.SaveEvent(ctx, event); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to store event: %v\n", err)
				return nil
			}

			if event.Type == events.EventTypeExitStatus {
				commandID := event.CommandID
				inflight.Add(1)
				go func() {
					defer inflight.Done()
					if _, err := analyzer.AnalyzeCommand(ctx, commandID); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: analysis failed for %s: %v\n", commandID, err)
					}
				}()
			}
			return nil
		},
		func(line string, err error) {
			fmt.Fprintf(os.Stderr, "Warning: skipping malformed event: %v\n", err)
		},
	)

	inflight.Wait()
	return err
}

func init() {
	rootCmd.AddCommand(observeCmd)
}
