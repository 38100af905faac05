package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "botrading",
	Short: "Multi-bot trading coordinator for a shared brokerage account",
	Long: `Botrading runs one trading bot instance against a brokerage account that
several independent instances share.

It provides tools for:
  - Running the trading cycle against the broker bridge and the AI service
  - Encoding and decoding the magic-number identities bots stamp on orders
  - Verifying which operations are currently open for an identity
  - Risk-based position sizing against broker contract specs
  - Querying the operation journal

Complete documentation is available at https://github.com/DVARGAS117/Botrading-sub003`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
