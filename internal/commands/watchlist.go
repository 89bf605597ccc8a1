package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/fib-monitor/internal/marketcap"
	"github.com/web3-frozen/fib-monitor/internal/store"
)

func newWatchlistCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watchlist",
		Aliases: []string{"wl"},
		Short:   "List and edit watched assets",
		Long: `List and edit watched assets.

Examples:
  fibctl watchlist list
  fibctl watchlist add 0x6982508145454ce325ddbe47a25d4ec3d2311933 PEPE 1.5M
  fibctl watchlist update PEPE 2M 100K
  fibctl watchlist delete PEPE`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show all watched assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wl, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer wl.Close()

			assets, err := wl.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			if len(assets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "watch list is empty")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tADDRESS\tHIGH\tLOW")
			for _, a := range assets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Label, a.Address, marketcap.Format(a.HighPrice), marketcap.Format(a.LowPrice))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <address> <name> <high> [low]",
		Short: "Watch a new asset",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			high, err := marketcap.Parse(args[2])
			if err != nil {
				return err
			}
			low := opts.defaultLow
			if len(args) == 4 {
				if low, err = marketcap.Parse(args[3]); err != nil {
					return err
				}
			}

			wl, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer wl.Close()

			ok, err := wl.Add(cmd.Context(), store.Asset{Address: args[0], Label: args[1], HighPrice: high, LowPrice: low})
			if err != nil {
				return fmt.Errorf("add: %w", err)
			}
			if !ok {
				return fmt.Errorf("%s or its address is already watched", args[1])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s - %s)\n", args[1], marketcap.Format(low), marketcap.Format(high))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <name> <high> <low>",
		Short: "Replace an asset's range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			high, err := marketcap.Parse(args[1])
			if err != nil {
				return err
			}
			low, err := marketcap.Parse(args[2])
			if err != nil {
				return err
			}
			if err := store.ValidateRange(high, low); err != nil {
				return err
			}

			wl, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer wl.Close()

			ok, err := wl.UpdateRange(cmd.Context(), args[0], high, low)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			if !ok {
				return fmt.Errorf("no asset named %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%s - %s)\n", args[0], marketcap.Format(low), marketcap.Format(high))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Stop watching an asset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wl, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer wl.Close()

			ok, err := wl.Delete(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			if !ok {
				return fmt.Errorf("no asset named %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}
