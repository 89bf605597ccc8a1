package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/fib-monitor/internal/store"
)

func newMigrateCmd(opts *options) *cobra.Command {
	var importFile string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		Long: `Create the Postgres schema, optionally importing an existing watch
list file.

Examples:
  fibctl migrate --database-url postgres://localhost/fib
  fibctl migrate --import data/tokens.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.databaseURL == "" {
				return errors.New("migrate needs --database-url or DATABASE_URL")
			}
			if importFile != "" {
				if _, err := os.Stat(importFile); err != nil {
					return fmt.Errorf("import file: %w", err)
				}
			}
			ctx := cmd.Context()

			db, err := store.New(ctx, opts.databaseURL)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")

			if importFile == "" {
				return nil
			}
			fs, err := store.NewFileStore(importFile)
			if err != nil {
				return err
			}
			assets, err := fs.List(ctx)
			if err != nil {
				return fmt.Errorf("read %s: %w", importFile, err)
			}
			imported := 0
			for _, a := range assets {
				ok, err := db.Add(ctx, a)
				if err != nil {
					return fmt.Errorf("import %s: %w", a.Label, err)
				}
				if ok {
					imported++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d assets\n", imported, len(assets))
			return nil
		},
	}
	cmd.Flags().StringVar(&importFile, "import", "", "watch list file to copy into the database")
	return cmd
}
