package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DVARGAS117/Botrading-sub003/journal"
	"github.com/DVARGAS117/Botrading-sub003/magic"
)

var magicCmd = &cobra.Command{
	Use:   "magic",
	Short: "Encode, decode and audit magic-number identities",
	Long: `Work with the six-digit magic numbers bots stamp on their operations.

Subcommands:
  encode - Build a magic number from identity components
  decode - Split magic numbers back into their components
  audit  - Summarize the identities recorded in a journal

Examples:
  botrading magic encode --bot 2 --ia 3 --type limit --seq 456
  botrading magic decode 231456 300001
  botrading magic audit --db ./botrading.sqlite`,
}

var magicEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a magic number from identity components",
	RunE:  runMagicEncode,
}

var magicDecodeCmd = &cobra.Command{
	Use:   "decode <number> [number...]",
	Short: "Split magic numbers back into their components",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMagicDecode,
}

var magicAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Summarize the identities recorded in a journal",
	Long: `Decode every magic number in a journal (or a plain id list, one number
per line) and report the operation counts per bot, IA configuration and
order type.

Examples:
  botrading magic audit --db ./botrading.sqlite
  botrading magic audit --file ids.txt`,
	RunE: runMagicAudit,
}

var (
	magicBot       int
	magicIA        int
	magicType      string
	magicSeq       int
	magicAuditDB   string
	magicAuditFile string
)

func init() {
	rootCmd.AddCommand(magicCmd)
	magicCmd.AddCommand(magicEncodeCmd)
	magicCmd.AddCommand(magicDecodeCmd)
	magicCmd.AddCommand(magicAuditCmd)

	magicEncodeCmd.Flags().IntVar(&magicBot, "bot", 0, "bot id, 1-9 or legacy 101-109 (required)")
	magicEncodeCmd.Flags().IntVar(&magicIA, "ia", 0, "IA configuration id, 0-9")
	magicEncodeCmd.Flags().StringVar(&magicType, "type", "market", "order type: market, limit, stop or stop_limit")
	magicEncodeCmd.Flags().IntVar(&magicSeq, "seq", 0, "symbol sequence, 0-999")
	magicEncodeCmd.MarkFlagRequired("bot")

	magicAuditCmd.Flags().StringVarP(&magicAuditDB, "db", "d", "./botrading.sqlite", "path to SQLite journal DB")
	magicAuditCmd.Flags().StringVar(&magicAuditFile, "file", "", "read ids from a text file instead of the journal")
}

func runMagicEncode(cmd *cobra.Command, args []string) error {
	botID, err := magic.FoldLegacyBotID(magicBot)
	if err != nil {
		return err
	}
	orderType, err := magic.ParseOrderType(magicType)
	if err != nil {
		return err
	}

	n, err := magic.Encode(botID, magicIA, orderType, magicSeq)
	if err != nil {
		return err
	}

	fmt.Printf("%d\n", n)
	return nil
}

func runMagicDecode(cmd *cobra.Command, args []string) error {
	var failed int
	for _, arg := range args {
		raw, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Printf("✗ %s: not a number\n", arg)
			failed++
			continue
		}

		c, err := magic.Decode(magic.Number(raw))
		if err != nil {
			fmt.Printf("✗ %d: %v\n", raw, err)
			failed++
			continue
		}
		fmt.Printf("%d: bot=%d ia=%d type=%s seq=%d\n", raw, c.BotID, c.IAConfigID, c.OrderType, c.Sequence)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d numbers did not decode", failed, len(args))
	}
	return nil
}

func runMagicAudit(cmd *cobra.Command, args []string) error {
	var ids []magic.Number
	if magicAuditFile != "" {
		var err error
		ids, err = readIDFile(magicAuditFile)
		if err != nil {
			return err
		}
	} else {
		j, err := journal.NewSQLite(magicAuditDB)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer j.Close()

		ids, err = j.ListMagics()
		if err != nil {
			return fmt.Errorf("list magics: %w", err)
		}
	}
	if len(ids) == 0 {
		fmt.Println("journal has no operations")
		return nil
	}

	report := magic.Audit(ids)
	fmt.Printf("Operations: %d (%d decoded, %d invalid)\n", report.Total, report.Decoded(), len(report.Invalid))
	for _, inv := range report.Invalid {
		fmt.Printf("  ✗ row %d: %v\n", inv.Index, inv.Err)
	}

	for _, group := range []magic.GroupBy{magic.GroupByBot, magic.GroupByIAConfig, magic.GroupByOrderType} {
		dist, err := magic.Distribution(ids, group)
		if err != nil {
			return err
		}
		fmt.Printf("\nBy %s:\n", group)
		for _, key := range magic.Keys(dist) {
			share := dist[key]
			fmt.Printf("  %-12s %4d  (%.1f%%)\n", key, share.Count, share.Percent)
		}
	}
	return nil
}

// readIDFile parses one magic number per line; blank lines and #-comments are
// skipped. Unparseable lines become invalid sentinel entries so the audit can
// report them instead of silently dropping rows.
func readIDFile(path string) ([]magic.Number, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read id file: %w", err)
	}

	var ids []magic.Number
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			ids = append(ids, magic.Number(-1))
			continue
		}
		ids = append(ids, magic.Number(n))
	}
	return ids, nil
}
