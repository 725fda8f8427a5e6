package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/daybook/broker"
	"github.com/rustyeddy/daybook/market"
	"github.com/rustyeddy/daybook/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete run configuration
type Config struct {
	Account    AccountConfig     `json:"account" yaml:"account"`
	Simulation SimulationConfig  `json:"simulation" yaml:"simulation"`
	Assets     []AssetConfig     `json:"assets" yaml:"assets"`
	Strategy   strategies.Config `json:"strategy" yaml:"strategy"`
	Journal    JournalConfig     `json:"journal" yaml:"journal"`
	Log        LogConfig         `json:"log" yaml:"log"`
}

// AccountConfig contains the broker's starting state and rules
type AccountConfig struct {
	Cash       float64 `json:"cash" yaml:"cash"`
	Margin     float64 `json:"margin" yaml:"margin"`
	AllowShort bool    `json:"allow_short" yaml:"allow_short"`
	Commission string  `json:"commission" yaml:"commission"` // "none" or "discount"
	// ApplySplits defaults to true when unset.
	ApplySplits *bool `json:"apply_splits,omitempty" yaml:"apply_splits,omitempty"`
}

func (a AccountConfig) SplitsEnabled() bool {
	return a.ApplySplits == nil || *a.ApplySplits
}

// SimulationConfig contains the simulated period and exchange session
type SimulationConfig struct {
	Start     string `json:"start" yaml:"start"` // YYYY-MM-DD
	End       string `json:"end" yaml:"end"`
	Timezone  string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	OpenTime  string `json:"open_time,omitempty" yaml:"open_time,omitempty"` // HH:MM
	CloseTime string `json:"close_time,omitempty" yaml:"close_time,omitempty"`
}

// Range parses the start and end dates.
func (s SimulationConfig) Range() (start, end time.Time, err error) {
	if start, err = time.Parse(time.DateOnly, s.Start); err != nil {
		return start, end, fmt.Errorf("simulation.start: %w", err)
	}
	if end, err = time.Parse(time.DateOnly, s.End); err != nil {
		return start, end, fmt.Errorf("simulation.end: %w", err)
	}
	return start, end, nil
}

// Session builds the exchange session, starting from the US equity
// defaults and overriding whatever is set.
func (s SimulationConfig) Session() (market.Session, error) {
	sess := market.DefaultSession()
	if s.Timezone != "" {
		loc, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return sess, fmt.Errorf("simulation.timezone: %w", err)
		}
		sess.Location = loc
	}
	if s.OpenTime != "" {
		c, err := market.ParseClock(s.OpenTime)
		if err != nil {
			return sess, fmt.Errorf("simulation.open_time: %w", err)
		}
		sess.Open = c
	}
	if s.CloseTime != "" {
		c, err := market.ParseClock(s.CloseTime)
		if err != nil {
			return sess, fmt.Errorf("simulation.close_time: %w", err)
		}
		sess.Close = c
	}
	return sess, nil
}

// AssetConfig names a tradeable symbol and its daily bar CSV
type AssetConfig struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Path   string `json:"path" yaml:"path"`
}

// JournalConfig contains export parameters
type JournalConfig struct {
	Type    string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = &Config{}
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

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if c.Account.Margin < 0 {
		return fmt.Errorf("account.margin must not be negative")
	}
	if _, err := broker.CommissionByName(c.Account.Commission); err != nil {
		return fmt.Errorf("account.commission: %w", err)
	}

	start, end, err := c.Simulation.Range()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("simulation.end must not be before simulation.start")
	}
	if _, err := c.Simulation.Session(); err != nil {
		return err
	}

	if len(c.Assets) == 0 {
		return fmt.Errorf("at least one asset is required")
	}
	seen := map[string]bool{}
	for i, a := range c.Assets {
		if a.Symbol == "" {
			return fmt.Errorf("assets[%d].symbol is required", i)
		}
		if a.Path == "" {
			return fmt.Errorf("assets[%d].path is required", i)
		}
		if seen[a.Symbol] {
			return fmt.Errorf("duplicate asset: %s", a.Symbol)
		}
		seen[a.Symbol] = true
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if !known(strategies.Names(), strings.ToLower(c.Strategy.Name)) {
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if c.Strategy.Symbol != "" && !seen[c.Strategy.Symbol] {
		return fmt.Errorf("strategy.symbol %s is not a configured asset", c.Strategy.Symbol)
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if _, err := c.Log.ParseLevel(); err != nil {
		return err
	}
	return nil
}

func known(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Cash:       10000,
			Commission: "discount",
		},
		Simulation: SimulationConfig{
			Start:     "2024-01-02",
			End:       "2024-12-31",
			Timezone:  "America/New_York",
			OpenTime:  "09:30",
			CloseTime: "16:00",
		},
		Assets: []AssetConfig{
			{Symbol: "spy", Path: "./data/spy.csv"},
		},
		Strategy: strategies.Config{
			Name:   "buy-and-hold",
			Symbol: "spy",
			Size:   10,
			Band:   0.01,
		},
		Journal: JournalConfig{
			Type: "csv",
			Dir:  "./out",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
