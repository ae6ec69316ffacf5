package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultHiveEngineNodes is the ranked list of public Hive-Engine RPC nodes.
var DefaultHiveEngineNodes = []string{
	"https://api2.hive-engine.com/rpc/",
	"https://engine.rishipanthee.com/",
	"https://herpc.dtools.dev/",
	"https://engine.deathwing.me/",
	"https://enginerpc.com/",
	"https://api.primersion.com/",
	"https://herpc.kanibot.com/",
	"https://he.sourov.dev/",
	"https://herpc.actifit.io/",
	"https://ctpmain.com/",
	"https://he.ausbit.dev/",
}

// Config holds all application configuration.
// Values come from defaults, then an optional YAML file named by CONFIG_FILE,
// then environment variables.
type Config struct {
	SplinterlandsURL  string   `yaml:"splinterlands_url"`
	LandURL           string   `yaml:"land_url"`
	PricesURL         string   `yaml:"prices_url"`
	PeakMonstersURL   string   `yaml:"peakmonsters_url"`
	ValidatorURL      string   `yaml:"validator_url"`
	HiveEngineNodes   []string `yaml:"hive_engine_nodes"`
	LedgerDatabaseURL string   `yaml:"ledger_database_url"`

	HTTPTimeout        time.Duration `yaml:"http_timeout"`
	RestRetryMax       int           `yaml:"rest_retry_max"`
	RestRetryBaseDelay time.Duration `yaml:"rest_retry_base_delay"`
	RestRetryMaxDelay  time.Duration `yaml:"rest_retry_max_delay"`
	RestRateLimit      float64       `yaml:"rest_rate_limit"`

	FailoverAttempts          int           `yaml:"failover_attempts"`
	FailoverBackoff           time.Duration `yaml:"failover_backoff"`
	FailoverBackoffMultiplier float64       `yaml:"failover_backoff_multiplier"`

	MaxBulkAccounts int      `yaml:"max_bulk_accounts"`
	LedgerBatchSize int      `yaml:"ledger_batch_size"`
	CreditsUSDRate  float64  `yaml:"credits_usd_rate"`
	LandSwapFee     float64  `yaml:"land_swap_fee"`
	Tokens          []string `yaml:"tokens"`

	MarketRefreshInterval time.Duration `yaml:"market_refresh_interval"`
	HTTPPort              string        `yaml:"http_port"`
	LogLevel              string        `yaml:"log_level"`
	AdminAPIKey           string        `yaml:"-"`

	ExportAccounts      []string      `yaml:"export_accounts"`
	ExportInterval      time.Duration `yaml:"export_interval"`
	ExportSheet         string        `yaml:"export_sheet"`
	ExportXLSXPath      string        `yaml:"export_xlsx_path"`
	SheetsSpreadsheetID string        `yaml:"sheets_spreadsheet_id"`
	SheetsCredentials   string        `yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		SplinterlandsURL:          "https://api2.splinterlands.com/",
		LandURL:                   "https://vapi.splinterlands.com/",
		PricesURL:                 "https://prices.splinterlands.com/",
		PeakMonstersURL:           "https://peakmonsters.com/api/market/cards/prices",
		ValidatorURL:              "https://validator.hive-engine.com/",
		HiveEngineNodes:           DefaultHiveEngineNodes,
		HTTPTimeout:               10 * time.Second,
		RestRetryMax:              10,
		RestRetryBaseDelay:        time.Second,
		RestRetryMaxDelay:         2 * time.Minute,
		FailoverAttempts:          3,
		FailoverBackoff:           100 * time.Millisecond,
		FailoverBackoffMultiplier: 1,
		MaxBulkAccounts:           5,
		LedgerBatchSize:           500,
		CreditsUSDRate:            0.001,
		LandSwapFee:               0.90,
		Tokens: []string{
			"SPS", "SPSP", "DEC", "DEC-B", "LICENSE", "PLOT", "TRACT", "REGION",
			"VOUCHER", "VOUCHER-G", "CREDITS", "DICE",
		},
		MarketRefreshInterval: time.Hour,
		HTTPPort:              "8080",
		LogLevel:              "info",
		ExportInterval:        24 * time.Hour,
		ExportSheet:           "valuations",
	}
}

// Load reads configuration from the optional YAML file and environment variables.
func Load() Config {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			slog.Warn("ignoring config file", "path", path, "error", err)
		}
	}

	cfg.SplinterlandsURL = envOrDefault("SPL_BASE_URL", cfg.SplinterlandsURL)
	cfg.LandURL = envOrDefault("SPL_LAND_URL", cfg.LandURL)
	cfg.PricesURL = envOrDefault("SPL_PRICES_URL", cfg.PricesURL)
	cfg.PeakMonstersURL = envOrDefault("PEAKMONSTERS_URL", cfg.PeakMonstersURL)
	cfg.ValidatorURL = envOrDefault("VALIDATOR_URL", cfg.ValidatorURL)
	cfg.HiveEngineNodes = envOrDefaultList("HIVE_ENGINE_NODES", cfg.HiveEngineNodes)
	cfg.LedgerDatabaseURL = envOrDefault("LEDGER_DATABASE_URL", cfg.LedgerDatabaseURL)

	cfg.HTTPTimeout = envOrDefaultDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.RestRetryMax = envOrDefaultInt("REST_RETRY_MAX", cfg.RestRetryMax)
	cfg.RestRetryBaseDelay = envOrDefaultDuration("REST_RETRY_BASE_DELAY", cfg.RestRetryBaseDelay)
	cfg.RestRetryMaxDelay = envOrDefaultDuration("REST_RETRY_MAX_DELAY", cfg.RestRetryMaxDelay)
	cfg.RestRateLimit = envOrDefaultFloat("REST_RATE_LIMIT", cfg.RestRateLimit)

	cfg.FailoverAttempts = envOrDefaultInt("FAILOVER_ATTEMPTS", cfg.FailoverAttempts)
	cfg.FailoverBackoff = envOrDefaultDuration("FAILOVER_BACKOFF", cfg.FailoverBackoff)
	cfg.FailoverBackoffMultiplier = envOrDefaultFloat("FAILOVER_BACKOFF_MULTIPLIER", cfg.FailoverBackoffMultiplier)

	cfg.MaxBulkAccounts = envOrDefaultInt("MAX_BULK_ACCOUNTS", cfg.MaxBulkAccounts)
	cfg.LedgerBatchSize = envOrDefaultInt("LEDGER_BATCH_SIZE", cfg.LedgerBatchSize)
	cfg.CreditsUSDRate = envOrDefaultFloat("CREDITS_USD_RATE", cfg.CreditsUSDRate)
	cfg.LandSwapFee = envOrDefaultFloat("LAND_SWAP_FEE", cfg.LandSwapFee)
	cfg.Tokens = envOrDefaultList("TOKENS", cfg.Tokens)

	cfg.MarketRefreshInterval = envOrDefaultDuration("MARKET_REFRESH_INTERVAL", cfg.MarketRefreshInterval)
	cfg.HTTPPort = envOrDefault("HTTP_PORT", cfg.HTTPPort)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)

	cfg.AdminAPIKey = os.Getenv("ADMIN_API_KEY")
	cfg.ExportAccounts = envOrDefaultList("EXPORT_ACCOUNTS", cfg.ExportAccounts)
	cfg.ExportInterval = envOrDefaultDuration("EXPORT_INTERVAL", cfg.ExportInterval)
	cfg.ExportSheet = envOrDefault("EXPORT_SHEET", cfg.ExportSheet)
	cfg.ExportXLSXPath = envOrDefault("EXPORT_XLSX_PATH", cfg.ExportXLSXPath)
	cfg.SheetsSpreadsheetID = envOrDefault("SHEETS_SPREADSHEET_ID", cfg.SheetsSpreadsheetID)
	cfg.SheetsCredentials = envOrDefault("GOOGLE_CREDENTIALS_JSON", cfg.SheetsCredentials)

	return cfg
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		slog.Warn("empty list env var, using default", "key", key)
		return defaultVal
	}
	return out
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid number env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return f
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
