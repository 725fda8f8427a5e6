package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "daybook",
	Short: "A day-by-day market simulator with tax-lot accounting",
	Long: `Daybook replays daily price bars one business day at a time.

A strategy places limit orders for the open and close auctions, the broker
fills them against historical auction prices without look-ahead, and a FIFO
ledger tracks lots, realized gains, commissions and dividends.

Results can be exported to CSV files or a SQLite database and summarized
as an Org-mode report.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// An interrupt cancels a running simulation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
