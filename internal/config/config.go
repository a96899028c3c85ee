package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
)

type Config struct {
	// THORNode settings
	THORNodeURL      string
	THORNodeClientID string
	RefreshInterval  time.Duration
	NetworkDefaults  string // YAML path; empty uses the embedded defaults

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Redis settings
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ClickHouse settings; history is disabled when the address is empty
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API settings
	APIAddr        string
	APIKey         string
	DevMode        bool
	QuoteRateLimit float64 // requests per second per client
	QuoteRateBurst int

	// Quote settings
	OutboundFeeConversion string
	InterfaceID           int
	QuoteTTL              time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		// THORNode
		THORNodeURL:      getEnv("THORNODE_URL", "https://thornode.ninerealms.com"),
		THORNodeClientID: getEnv("THORNODE_CLIENT_ID", ""),
		RefreshInterval:  getDurationEnv("REFRESH_INTERVAL", 30*time.Second),
		NetworkDefaults:  getEnv("NETWORK_DEFAULTS_PATH", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "thorchain"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr:        getEnv("API_ADDR", ":8090"),
		APIKey:         getEnv("API_KEY", ""),
		DevMode:        getBoolEnv("DEV_MODE", false),
		QuoteRateLimit: getFloatEnv("QUOTE_RATE_LIMIT", 10),
		QuoteRateBurst: getIntEnv("QUOTE_RATE_BURST", 20),

		// Quote
		OutboundFeeConversion: getEnv("OUTBOUND_FEE_CONVERSION", string(quote.FeeGasAsset)),
		InterfaceID:           getIntEnv("INTERFACE_ID", 0),
		QuoteTTL:              getDurationEnv("QUOTE_TTL", quote.DefaultQuoteTTL),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.THORNodeURL) == "" {
		errs = append(errs, fmt.Errorf("THORNODE_URL is required"))
	}
	if c.RefreshInterval < time.Second {
		errs = append(errs, fmt.Errorf("REFRESH_INTERVAL must be >= 1s"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be > 0"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be >= 0"))
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("RETRY_BACKOFF must be >= 0"))
	}
	if strings.TrimSpace(c.RedisAddr) == "" {
		errs = append(errs, fmt.Errorf("REDIS_ADDR is required"))
	}
	if c.RedisDB < 0 {
		errs = append(errs, fmt.Errorf("REDIS_DB must be >= 0"))
	}
	if strings.TrimSpace(c.APIAddr) == "" {
		errs = append(errs, fmt.Errorf("API_ADDR is required"))
	}
	if c.QuoteRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("QUOTE_RATE_LIMIT must be > 0"))
	}
	if c.QuoteRateBurst < 1 {
		errs = append(errs, fmt.Errorf("QUOTE_RATE_BURST must be >= 1"))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if err := c.Quote().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Quote returns the engine settings
func (c *Config) Quote() quote.Config {
	return quote.Config{
		OutboundFeeConversion: quote.FeeConversion(strings.ToLower(strings.TrimSpace(c.OutboundFeeConversion))),
		InterfaceID:           c.InterfaceID,
		QuoteTTL:              c.QuoteTTL,
		Now:                   time.Now,
	}
}

// Level returns the parsed log level, info if it doesn't parse
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// HistoryEnabled reports whether quotes are written to ClickHouse
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.ClickHouseAddr) != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
