package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/web3-frozen/fib-monitor/internal/fib"
	"github.com/web3-frozen/fib-monitor/internal/marketcap"
)

func newLevelsCmd() *cobra.Command {
	var high, low string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Print Fibonacci levels for a range",
		Long: `Print retracement and extension levels for a high/low range.

Examples:
  fibctl levels --high 1M --low 6000
  fibctl levels --high 10K --low 5K --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := marketcap.Parse(high)
			if err != nil {
				return fmt.Errorf("--high: %w", err)
			}
			l, err := marketcap.Parse(low)
			if err != nil {
				return fmt.Errorf("--low: %w", err)
			}

			levels := fib.Ordered(h, l)
			if levels == nil {
				return fmt.Errorf("no levels: high %s must be above low %s", marketcap.Format(h), marketcap.Format(l))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(levels)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LEVEL\tCATEGORY\tPRICE\tRAW")
			for _, p := range levels {
				fmt.Fprintf(tw, "%.1f%%\t%s\t%s\t%.2f\n", p.Percent, p.Category, marketcap.Format(p.Price), p.Price)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&high, "high", "", "range high (required)")
	cmd.Flags().StringVar(&low, "low", "0", "range low")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("high")
	return cmd
}
