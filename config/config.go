// Package config loads and validates the per-instance bot configuration.
//
// One file configures one bot process: its identity digits, the symbols it
// trades, its risk budget, and the endpoints it shares with every other
// instance. Files are YAML first with a JSON fallback, like every other tool
// in this codebase.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DVARGAS117/Botrading-sub003/magic"
	"github.com/DVARGAS117/Botrading-sub003/retry"
	"github.com/DVARGAS117/Botrading-sub003/session"
)

// Config is the complete configuration of one bot instance.
type Config struct {
	Bot     BotConfig      `json:"bot" yaml:"bot"`
	Symbols []SymbolConfig `json:"symbols" yaml:"symbols"`
	Risk    RiskConfig     `json:"risk" yaml:"risk"`
	Retry   RetryConfig    `json:"retry" yaml:"retry"`
	Bridge  BridgeConfig   `json:"bridge" yaml:"bridge"`
	AI      AIConfig       `json:"ai" yaml:"ai"`
	Journal JournalConfig  `json:"journal" yaml:"journal"`
	Session SessionConfig  `json:"session,omitempty" yaml:"session,omitempty"`
	Metrics MetricsConfig  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// BotConfig carries the identity components this instance encodes into every
// magic number, and the cadence of its trading cycle.
type BotConfig struct {
	// ID is the bot id, either already one digit (1-9) or a legacy
	// three-digit id (101-109) folded at startup.
	ID int `json:"id" yaml:"id"`

	// IAConfigID selects which AI configuration this instance trades (0-9).
	IAConfigID int `json:"ia_config_id" yaml:"ia_config_id"`

	// OrderType is the order kind this instance submits: market, limit,
	// stop or stop_limit.
	OrderType string `json:"order_type" yaml:"order_type"`

	// CycleInterval is the pause between trading cycles, e.g. "60s".
	CycleInterval string `json:"cycle_interval" yaml:"cycle_interval"`
}

// FoldedID returns the encodable one-digit bot id.
func (b BotConfig) FoldedID() (int, error) {
	return magic.FoldLegacyBotID(b.ID)
}

// ParsedOrderType converts the configured order type string.
func (b BotConfig) ParsedOrderType() (magic.OrderType, error) {
	return magic.ParseOrderType(b.OrderType)
}

// Interval parses CycleInterval; empty means one minute.
func (b BotConfig) Interval() (time.Duration, error) {
	if b.CycleInterval == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(b.CycleInterval)
}

// SymbolConfig names one tradable symbol and pins the sequence digits of its
// identity. Sequences are explicit in the file, never derived from list
// order: reordering the list must not re-identify running operations.
type SymbolConfig struct {
	Name     string `json:"name" yaml:"name"`
	Sequence int    `json:"sequence" yaml:"sequence"`
}

// RiskConfig is the per-operation risk budget.
type RiskConfig struct {
	// Percent of account balance risked per operation; 2 means 2%.
	Percent float64 `json:"percent" yaml:"percent"`
}

// RetryConfig mirrors retry.Policy with string durations for YAML/JSON.
type RetryConfig struct {
	MaxAttempts   int     `json:"max_attempts" yaml:"max_attempts"`
	InitialDelay  string  `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay      string  `json:"max_delay" yaml:"max_delay"`
	BackoffFactor float64 `json:"backoff_factor" yaml:"backoff_factor"`
	Jitter        bool    `json:"jitter" yaml:"jitter"`
}

// Policy converts the section into a validated retry.Policy. The retryable
// predicate is not configuration; callers attach their own classifier.
func (r RetryConfig) Policy() (retry.Policy, error) {
	p := retry.Policy{
		MaxAttempts:   r.MaxAttempts,
		BackoffFactor: r.BackoffFactor,
		Jitter:        r.Jitter,
	}

	var err error
	if r.InitialDelay != "" {
		if p.InitialDelay, err = time.ParseDuration(r.InitialDelay); err != nil {
			return retry.Policy{}, fmt.Errorf("retry.initial_delay: %w", err)
		}
	}
	if r.MaxDelay != "" {
		if p.MaxDelay, err = time.ParseDuration(r.MaxDelay); err != nil {
			return retry.Policy{}, fmt.Errorf("retry.max_delay: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return retry.Policy{}, err
	}
	return p, nil
}

// BridgeConfig locates the broker bridge sidecar.
type BridgeConfig struct {
	URL     string `json:"url" yaml:"url"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// TimeoutDuration parses the request timeout; empty means the client
// default.
func (b BridgeConfig) TimeoutDuration() (time.Duration, error) {
	if b.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(b.Timeout)
}

// AIConfig locates the decision service.
type AIConfig struct {
	URL       string `json:"url" yaml:"url"`
	Timeout   string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Timeframe string `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
}

// TimeoutDuration parses the request timeout; empty means the client
// default.
func (a AIConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

// JournalConfig selects the journal backend.
type JournalConfig struct {
	Type           string `json:"type" yaml:"type"` // "csv" or "sqlite"
	DBPath         string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OperationsFile string `json:"operations_file,omitempty" yaml:"operations_file,omitempty"`
	DecisionsFile  string `json:"decisions_file,omitempty" yaml:"decisions_file,omitempty"`
}

// SessionConfig restricts when symbols may be evaluated. Empty lists admit
// everything.
type SessionConfig struct {
	Weekdays []string `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	Windows  []string `json:"windows,omitempty" yaml:"windows,omitempty"` // "HH:MM-HH:MM" UTC
}

// Gate builds the session gate for this configuration.
func (s SessionConfig) Gate() (*session.Gate, error) {
	return session.New(s.Weekdays, s.Windows)
}

// MetricsConfig exposes Prometheus metrics; a zero port disables the
// endpoint.
type MetricsConfig struct {
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON) and validates
// it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks every section, naming the offending field.
func (c *Config) Validate() error {
	if _, err := c.Bot.FoldedID(); err != nil {
		return fmt.Errorf("bot.id: %w", err)
	}
	if c.Bot.IAConfigID < magic.MinIAConfigID || c.Bot.IAConfigID > magic.MaxIAConfigID {
		return fmt.Errorf("bot.ia_config_id must be in [%d, %d], got %d",
			magic.MinIAConfigID, magic.MaxIAConfigID, c.Bot.IAConfigID)
	}
	if _, err := c.Bot.ParsedOrderType(); err != nil {
		return fmt.Errorf("bot.order_type: %w", err)
	}
	if d, err := c.Bot.Interval(); err != nil {
		return fmt.Errorf("bot.cycle_interval: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("bot.cycle_interval must be positive, got %s", d)
	}

	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols: at least one symbol is required")
	}
	names := make(map[string]bool, len(c.Symbols))
	seqs := make(map[int]bool, len(c.Symbols))
	for i, s := range c.Symbols {
		if s.Name == "" {
			return fmt.Errorf("symbols[%d].name is required", i)
		}
		if s.Sequence < magic.MinSequence || s.Sequence > magic.MaxSequence {
			return fmt.Errorf("symbols[%d].sequence must be in [%d, %d], got %d",
				i, magic.MinSequence, magic.MaxSequence, s.Sequence)
		}
		if names[s.Name] {
			return fmt.Errorf("symbols[%d].name %q is duplicated", i, s.Name)
		}
		if seqs[s.Sequence] {
			return fmt.Errorf("symbols[%d].sequence %d is duplicated", i, s.Sequence)
		}
		names[s.Name] = true
		seqs[s.Sequence] = true
	}

	if c.Risk.Percent <= 0 || c.Risk.Percent > 100 {
		return fmt.Errorf("risk.percent must be in (0, 100], got %g", c.Risk.Percent)
	}

	if _, err := c.Retry.Policy(); err != nil {
		return err
	}
	if _, err := c.Bridge.TimeoutDuration(); err != nil {
		return fmt.Errorf("bridge.timeout: %w", err)
	}
	if _, err := c.AI.TimeoutDuration(); err != nil {
		return fmt.Errorf("ai.timeout: %w", err)
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.OperationsFile == "" || c.Journal.DecisionsFile == "" {
			return fmt.Errorf("journal operations_file and decisions_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite', got %q", c.Journal.Type)
	}

	if _, err := c.Session.Gate(); err != nil {
		return err
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be in [0, 65535], got %d", c.Metrics.Port)
	}

	return nil
}

// Default returns a configuration with sensible defaults: one bot, one
// symbol, conservative risk, retries tuned for the shared endpoints.
func Default() *Config {
	return &Config{
		Bot: BotConfig{
			ID:            1,
			IAConfigID:    0,
			OrderType:     "market",
			CycleInterval: "60s",
		},
		Symbols: []SymbolConfig{
			{Name: "EURUSD", Sequence: 1},
		},
		Risk: RiskConfig{
			Percent: 1.0,
		},
		Retry: RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  "1s",
			MaxDelay:      "30s",
			BackoffFactor: 2.0,
			Jitter:        true,
		},
		Bridge: BridgeConfig{
			URL:     "http://127.0.0.1:8787",
			Timeout: "15s",
		},
		AI: AIConfig{
			URL:       "http://127.0.0.1:8899",
			Timeout:   "30s",
			Timeframe: "H1",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./botrading.sqlite",
		},
		Session: SessionConfig{
			Weekdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		},
		Metrics: MetricsConfig{
			Port: 9100,
		},
	}
}
