package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DVARGAS117/Botrading-sub003/broker/bridge"
	"github.com/DVARGAS117/Botrading-sub003/config"
	"github.com/DVARGAS117/Botrading-sub003/magic"
	"github.com/DVARGAS117/Botrading-sub003/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check which operations are open for this instance's identities",
	Long: `Query the broker bridge for open operations carrying this instance's
magic numbers.

Exits non-zero when a query fails: "could not find out" is an error, not
"no operation".

Examples:
  botrading verify --config bot2.yaml
  botrading verify --config bot2.yaml --symbol EURUSD`,
	RunE: runVerify,
}

var (
	verifyConfigPath string
	verifySymbol     string
)

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyConfigPath, "config", "f", "", "path to config file (required)")
	verifyCmd.Flags().StringVarP(&verifySymbol, "symbol", "s", "", "verify a single symbol instead of all configured ones")
	verifyCmd.MarkFlagRequired("config")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(verifyConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	botID, err := cfg.Bot.FoldedID()
	if err != nil {
		return err
	}
	orderType, err := cfg.Bot.ParsedOrderType()
	if err != nil {
		return err
	}

	symbols := cfg.Symbols
	if verifySymbol != "" {
		symbols = nil
		for _, sym := range cfg.Symbols {
			if sym.Name == verifySymbol {
				symbols = []config.SymbolConfig{sym}
				break
			}
		}
		if len(symbols) == 0 {
			return fmt.Errorf("symbol %q is not configured", verifySymbol)
		}
	}

	bridgeTimeout, _ := cfg.Bridge.TimeoutDuration()
	client := bridge.New(cfg.Bridge.URL, bridgeTimeout)
	v := verify.New(client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for _, sym := range symbols {
		id, err := magic.Encode(botID, cfg.Bot.IAConfigID, orderType, sym.Sequence)
		if err != nil {
			return fmt.Errorf("identity for %s: %w", sym.Name, err)
		}

		res, err := v.Verify(ctx, sym.Name, id)
		if err != nil {
			return fmt.Errorf("verify %s: %w", sym.Name, err)
		}

		if !res.HasOperation {
			fmt.Printf("✓ %s magic=%d: no open operation\n", sym.Name, id)
			continue
		}
		fmt.Printf("● %s magic=%d: %d open operation(s)\n", sym.Name, id, res.OperationCount)
		for _, op := range res.Operations {
			fmt.Printf("    #%d %s %.2f lots @ %.5f (profit %.2f)\n",
				op.Ticket, op.Direction, op.Lots, op.EntryPrice, op.Profit)
		}
	}
	return nil
}
