package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/DVARGAS117/Botrading-sub003/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the operation journal",
	Long: `Query and display operation records from a SQLite journal.

Subcommands:
  operation - Show one operation by ticket
  today     - List operations recorded today
  day       - List operations recorded on a specific day

Examples:
  botrading journal operation 1001
  botrading journal today
  botrading journal day 2024-01-15`,
}

var journalOperationCmd = &cobra.Command{
	Use:   "operation <ticket>",
	Short: "Show one operation by ticket",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOperation,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List operations recorded today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List operations recorded on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalOperationCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./botrading.sqlite", "path to SQLite journal DB")
}

func runJournalOperation(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ticket, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("ticket: %w", err)
	}

	rec, err := j.GetOperation(ticket)
	if err != nil {
		return fmt.Errorf("get operation: %w", err)
	}

	fmt.Println(journal.FormatOperationOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local
	start, end, err := dayBounds(loc, time.Now().In(loc).Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListOperationsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query operations: %w", err)
	}

	fmt.Println(journal.FormatOperationsOrg(recs))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(time.Local, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListOperationsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query operations: %w", err)
	}

	fmt.Println(journal.FormatOperationsOrg(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
