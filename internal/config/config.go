// Package config loads and validates the application configuration from
// a YAML file, with environment overrides for deployment-specific keys.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"solana-curve-sniper/internal/discovery"
	"solana-curve-sniper/internal/execution"
	"solana-curve-sniper/internal/filters"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/strategy"
)

// Config is the full application configuration.
type Config struct {
	Mode         string  `yaml:"mode" default:"paper" validate:"oneof=paper live"`
	BuyAmountSOL float64 `yaml:"buy_amount_sol" default:"0.1" validate:"gt=0"`
	SlippageBps  int64   `yaml:"slippage_bps" default:"500" validate:"gte=0,lte=10000"`

	Discovery DiscoveryConfig `yaml:"discovery"`
	Filters   FiltersConfig   `yaml:"filters"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// DiscoveryConfig controls the three candidate sources.
type DiscoveryConfig struct {
	ProgramID        string  `yaml:"program_id" default:"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P" validate:"required"`
	MaxAgeSeconds    int     `yaml:"max_age_seconds" default:"60" validate:"gt=0"`
	WSURL            string  `yaml:"ws_url"`
	AggregatorURL    string  `yaml:"aggregator_url"`
	PollSeconds      int     `yaml:"poll_seconds" default:"10" validate:"gt=0"`
	SOLPriceUSD      float64 `yaml:"sol_price_usd" default:"100" validate:"gt=0"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" default:"1" validate:"gt=0"`
	RequestTimeoutMS int     `yaml:"request_timeout_ms" default:"10000" validate:"gt=0"`
}

// FiltersConfig mirrors filters.Config with YAML-friendly scalars.
type FiltersConfig struct {
	MinFirstTradeSOL float64  `yaml:"min_first_trade_sol" default:"0.5" validate:"gte=0"`
	MaxSellTaxPct    float64  `yaml:"max_sell_tax_pct" default:"15" validate:"gte=0,lte=100"`
	MinLiquiditySOL  float64  `yaml:"min_liquidity_sol" default:"1.0" validate:"gte=0"`
	MaxDevHoldPct    float64  `yaml:"max_dev_hold_pct" default:"10" validate:"gte=0,lte=100"`
	MaxTop10Pct      float64  `yaml:"max_top10_pct" default:"80" validate:"gte=0,lte=100"`
	BannedKeywords   []string `yaml:"banned_keywords"`
}

// StrategyConfig mirrors strategy.Config with YAML-friendly scalars.
type StrategyConfig struct {
	TickMS                 int     `yaml:"tick_ms" default:"1000" validate:"gt=0"`
	TakeProfitTargetPct    float64 `yaml:"take_profit_target_pct" default:"50" validate:"gt=0"`
	TakeProfitSellFraction float64 `yaml:"take_profit_sell_fraction" default:"0.5" validate:"gt=0,lte=1"`
	TrailingStopEnabled    *bool   `yaml:"trailing_stop_enabled" default:"true"`
	TrailingActivationPct  float64 `yaml:"trailing_activation_pct" default:"100" validate:"gt=0"`
	TrailingRetracePct     float64 `yaml:"trailing_retrace_pct" default:"15" validate:"gt=0,lte=100"`
	MaxHoldMinutes         int     `yaml:"max_hold_minutes" default:"90" validate:"gt=0"`
	VolumeDropThresholdPct float64 `yaml:"volume_drop_threshold_pct" default:"80" validate:"gt=0,lte=100"`
	StatusLogEveryTicks    int     `yaml:"status_log_every_ticks" default:"60" validate:"gte=0"`
}

// LedgerConfig mirrors ledger.Config with YAML-friendly scalars.
type LedgerConfig struct {
	InitialBalanceSOL float64 `yaml:"initial_balance_sol" default:"10.0" validate:"gt=0"`
	NetworkFeeSOL     float64 `yaml:"network_fee_sol" default:"0.00001" validate:"gte=0"`
	PriorityFeeSOL    float64 `yaml:"priority_fee_sol" default:"0.0004" validate:"gte=0"`
}

// StorageConfig selects the trade-log backend and its connection data.
type StorageConfig struct {
	Backend       string `yaml:"backend" default:"memory" validate:"oneof=memory redis postgres"`
	RedisAddr     string `yaml:"redis_addr" default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"gte=0"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	// ClickHouseDSN enables volume-observation persistence when set.
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	// RetentionDays bounds the trade log; zero disables sweeping.
	RetentionDays int `yaml:"retention_days" default:"30" validate:"gte=0"`
}

// ServerConfig controls the HTTP listener (webhook, health, metrics).
type ServerConfig struct {
	Port int `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"json" validate:"oneof=json console"`
}

var validate = validator.New()

// Load reads the YAML file at path, applies .env overrides, fills
// defaults and validates the result. Unknown YAML keys are rejected.
func Load(path string) (*Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides lets deployment secrets stay out of the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.RedisPassword = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickHouseDSN = v
	}
	if v := os.Getenv("WS_URL"); v != "" {
		cfg.Discovery.WSURL = v
	}
}

// ExecutionConfig converts to the execution engine's typed config.
func (c *Config) ExecutionConfig() execution.Config {
	return execution.Config{
		Mode:         execution.Mode(c.Mode),
		BuyAmountSOL: decimal.NewFromFloat(c.BuyAmountSOL),
		SlippageBps:  c.SlippageBps,
	}
}

// LedgerConfig converts to the ledger's typed config.
func (c *Config) LedgerConfig() ledger.Config {
	return ledger.Config{
		InitialBalanceSOL: decimal.NewFromFloat(c.Ledger.InitialBalanceSOL),
		NetworkFeeSOL:     decimal.NewFromFloat(c.Ledger.NetworkFeeSOL),
		PriorityFeeSOL:    decimal.NewFromFloat(c.Ledger.PriorityFeeSOL),
	}
}

// FilterConfig converts to the filter pipeline's typed config.
func (c *Config) FilterConfig() filters.Config {
	cfg := filters.DefaultConfig()
	cfg.MinFirstTradeSOL = decimal.NewFromFloat(c.Filters.MinFirstTradeSOL)
	cfg.MaxSellTaxPct = decimal.NewFromFloat(c.Filters.MaxSellTaxPct)
	cfg.MinLiquiditySOL = decimal.NewFromFloat(c.Filters.MinLiquiditySOL)
	cfg.MaxDevHoldPct = decimal.NewFromFloat(c.Filters.MaxDevHoldPct)
	cfg.MaxTop10HoldPct = decimal.NewFromFloat(c.Filters.MaxTop10Pct)
	if len(c.Filters.BannedKeywords) > 0 {
		cfg.BannedKeywords = c.Filters.BannedKeywords
	}
	return cfg
}

// StrategyConfig converts to the orchestrator's typed config.
func (c *Config) StrategyConfig() strategy.Config {
	cfg := strategy.Config{
		TickInterval:           time.Duration(c.Strategy.TickMS) * time.Millisecond,
		TakeProfitTargetPct:    decimal.NewFromFloat(c.Strategy.TakeProfitTargetPct),
		TakeProfitSellFraction: decimal.NewFromFloat(c.Strategy.TakeProfitSellFraction),
		TrailingActivationPct:  decimal.NewFromFloat(c.Strategy.TrailingActivationPct),
		TrailingRetracePct:     decimal.NewFromFloat(c.Strategy.TrailingRetracePct),
		MaxHold:                time.Duration(c.Strategy.MaxHoldMinutes) * time.Minute,
		VolumeDropThresholdPct: decimal.NewFromFloat(c.Strategy.VolumeDropThresholdPct),
		StatusLogEveryTicks:    c.Strategy.StatusLogEveryTicks,
	}
	cfg.TrailingStopEnabled = c.Strategy.TrailingStopEnabled == nil || *c.Strategy.TrailingStopEnabled
	return cfg
}

// ParserConfig converts to the discovery parser's typed config.
func (c *Config) ParserConfig() discovery.ParserConfig {
	return discovery.ParserConfig{
		ProgramID: c.Discovery.ProgramID,
		MaxAge:    time.Duration(c.Discovery.MaxAgeSeconds) * time.Second,
	}
}

// PollerConfig converts to the aggregator poller's typed config.
func (c *Config) PollerConfig() discovery.PollerConfig {
	return discovery.PollerConfig{
		URL:               c.Discovery.AggregatorURL,
		Interval:          time.Duration(c.Discovery.PollSeconds) * time.Second,
		MaxAge:            time.Duration(c.Discovery.MaxAgeSeconds) * time.Second,
		SOLPriceUSD:       decimal.NewFromFloat(c.Discovery.SOLPriceUSD),
		RequestsPerSecond: c.Discovery.RequestsPerSec,
		Timeout:           time.Duration(c.Discovery.RequestTimeoutMS) * time.Millisecond,
	}
}
