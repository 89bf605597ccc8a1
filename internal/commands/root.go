package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/fib-monitor/internal/config"
	"github.com/web3-frozen/fib-monitor/internal/store"
)

type options struct {
	databaseURL string
	file        string
	defaultLow  float64
}

// NewRootCmd builds the fibctl command tree. Connection settings default to
// the same environment the server reads and can be overridden by flags.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "fibctl",
		Short: "Manage the Fibonacci level monitor",
		Long: `fibctl inspects and edits the watch list used by the Fibonacci level
monitor, and computes retracement and extension levels for any range.

Prices accept K/M/B suffixes, e.g. 450K, 1.5M, 2B.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg := config.Load()
			if !cmd.Flags().Changed("database-url") {
				opts.databaseURL = cfg.DatabaseURL
			}
			if !cmd.Flags().Changed("file") {
				opts.file = cfg.WatchlistFile
			}
			opts.defaultLow = cfg.DefaultLow
		},
	}
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres DSN (default $DATABASE_URL)")
	root.PersistentFlags().StringVar(&opts.file, "file", "", "watch list file when no database is set (default $WATCHLIST_FILE)")

	root.AddCommand(newLevelsCmd())
	root.AddCommand(newWatchlistCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) open(ctx context.Context) (store.WatchList, error) {
	wl, err := store.Open(ctx, o.databaseURL, o.file)
	if err != nil {
		return nil, fmt.Errorf("open watch list: %w", err)
	}
	return wl, nil
}
