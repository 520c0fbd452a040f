// Command ambient observes terminal sessions and surfaces suggestions
// for failed commands. Shell hooks feed it events over stdin; everything
// else reads from its local store and status files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/runebook/ambient/internal/config"
	"github.com/runebook/ambient/internal/storage"
)

var dataDirFlag string

var rootCmd = &cobra.Command{
	Use:   "ambient",
	Short: "Ambient terminal agent",
	Long: `ambient watches terminal sessions, stores command events locally,
and turns failures into ranked suggestions. Analysis runs on-device by
default; a remote provider is opt-in and only ever sees sanitized data.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default $AMBIENT_DATA_DIR or ~/.ambient)")
}

// dataDir resolves the effective data directory for this invocation.
func dataDir() (string, error) {
	if dataDirFlag != "" {
		return dataDirFlag, nil
	}
	return config.DataDir()
}

// openStore opens the event store under the resolved data directory.
// Callers own the returned store and must Close it.
func openStore(ctx context.Context) (storage.Storage, string, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, "", err
	}
	store, err := storage.NewStorage(ctx, &storage.Config{Path: config.DatabasePath(dir)})
	if err != nil {
		return nil, "", fmt.Errorf("failed to open event store: %w", err)
	}
	return store, dir, nil
}
