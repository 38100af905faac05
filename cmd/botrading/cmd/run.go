package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/DVARGAS117/Botrading-sub003/ai"
	"github.com/DVARGAS117/Botrading-sub003/bot"
	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/broker/bridge"
	"github.com/DVARGAS117/Botrading-sub003/broker/paper"
	"github.com/DVARGAS117/Botrading-sub003/config"
	"github.com/DVARGAS117/Botrading-sub003/journal"
	"github.com/DVARGAS117/Botrading-sub003/retry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading cycle from a config file",
	Long: `Run one bot instance using settings from a configuration file.

The config file carries the instance's identity digits, the symbols it
trades, its risk budget, and the bridge and AI endpoints. The cycle runs
until interrupted.

Example:
  botrading run --config bot2.yaml`,
	RunE: runRun,
}

var (
	runConfigPath   string
	runPaper        bool
	runPaperBalance float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runPaper, "paper", false, "trade an in-memory paper account instead of the bridge")
	runCmd.Flags().Float64Var(&runPaperBalance, "paper-balance", 10000, "starting balance of the paper account")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	aiTimeout, _ := cfg.AI.TimeoutDuration()
	var decider bot.DecisionService = ai.New(cfg.AI.URL, aiTimeout)

	var brk broker.Broker
	if runPaper {
		pb := paper.New(broker.Account{
			ID:       "paper",
			Currency: "USD",
			Balance:  runPaperBalance,
			Equity:   runPaperBalance,
		})
		brk = pb
		// Paper mode has no market feed: quote each symbol at the
		// decision's entry so market orders fill there.
		decider = &quoteSeeder{decider: decider, broker: pb}
		log.Printf("[PAPER] trading in-memory account, balance %.2f", runPaperBalance)
	} else {
		bridgeTimeout, _ := cfg.Bridge.TimeoutDuration()
		client := bridge.New(cfg.Bridge.URL, bridgeTimeout)
		if err := client.Ping(ctx); err != nil {
			log.Printf("[BRIDGE] ping %s failed: %v", cfg.Bridge.URL, err)
		}
		brk = client
	}

	policy, err := cfg.Retry.Policy()
	if err != nil {
		return err
	}
	policy.Retryable = bot.DefaultRetryable
	exec, err := retry.New(policy)
	if err != nil {
		return err
	}

	gate, err := cfg.Session.Gate()
	if err != nil {
		return err
	}

	botID, err := cfg.Bot.FoldedID()
	if err != nil {
		return err
	}
	orderType, err := cfg.Bot.ParsedOrderType()
	if err != nil {
		return err
	}
	interval, err := cfg.Bot.Interval()
	if err != nil {
		return err
	}

	b, err := bot.New(bot.Options{
		Broker:      brk,
		Decider:     decider,
		Journal:     j,
		Retry:       exec,
		Gate:        gate,
		BotID:       botID,
		IAConfigID:  cfg.Bot.IAConfigID,
		OrderType:   orderType,
		Timeframe:   cfg.AI.Timeframe,
		RiskPercent: cfg.Risk.Percent,
		Symbols:     cfg.Symbols,
		Interval:    interval,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Port > 0 {
		serveMetrics(ctx, cfg.Metrics.Port)
	}

	return b.Run(ctx)
}

// openJournal builds the configured journal backend.
func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	if cfg.Type == "csv" {
		return journal.NewCSV(cfg.OperationsFile, cfg.DecisionsFile)
	}
	return journal.NewSQLite(cfg.DBPath)
}

// serveMetrics exposes /metrics and /healthz until the context ends.
func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		log.Printf("serving metrics on :%d/metrics", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
}

// quoteSeeder forwards decisions and posts each entry price as the paper
// broker's quote for that symbol.
type quoteSeeder struct {
	decider bot.DecisionService
	broker  *paper.Broker
}

func (q *quoteSeeder) Decide(ctx context.Context, req ai.Request) (ai.Decision, error) {
	dec, err := q.decider.Decide(ctx, req)
	if err == nil && dec.Action != ai.ActionHold && dec.EntryPrice > 0 {
		q.broker.SetPrice(req.Symbol, dec.EntryPrice, dec.EntryPrice)
	}
	return dec, err
}
