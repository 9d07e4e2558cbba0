package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete library configuration.
type Config struct {
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Exchanges ExchangesConfig `yaml:"exchanges" mapstructure:"exchanges"`
	Portfolio PortfolioConfig `yaml:"portfolio" mapstructure:"portfolio"`
	Explorers ExplorersConfig `yaml:"explorers" mapstructure:"explorers"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// CacheConfig contains ticker cache configuration.
type CacheConfig struct {
	Backend string        `yaml:"backend" mapstructure:"backend"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// ExchangesConfig contains per-exchange credentials and settings.
type ExchangesConfig struct {
	Binance CredentialsConfig `yaml:"binance" mapstructure:"binance"`
	Exmo    CredentialsConfig `yaml:"exmo" mapstructure:"exmo"`
	Yobit   YobitConfig       `yaml:"yobit" mapstructure:"yobit"`
}

// CredentialsConfig holds an exchange API key pair. Empty credentials keep
// the public endpoints usable while the signed ones fail.
type CredentialsConfig struct {
	Key    string `yaml:"key" mapstructure:"key"`
	Secret string `yaml:"secret" mapstructure:"secret"`
}

// YobitConfig extends credentials with the pairs whose prices are watched.
// Pairs are written as "BTC/USDT".
type YobitConfig struct {
	CredentialsConfig `yaml:",inline" mapstructure:",squash"`
	WatchedPairs      []string `yaml:"watched_pairs" mapstructure:"watched_pairs"`
}

// PortfolioConfig configures portfolio valuation.
type PortfolioConfig struct {
	// Quote is the currency the portfolio is valued in.
	Quote string `yaml:"quote" mapstructure:"quote"`
	// Fee is the fractional trading fee applied to sale prices, e.g.
	// 0.001 for 0.1%.
	Fee float64 `yaml:"fee" mapstructure:"fee"`
}

// ExplorersConfig contains blockchain explorer settings.
type ExplorersConfig struct {
	EthplorerAPIKey string `yaml:"ethplorer_api_key" mapstructure:"ethplorer_api_key"`
	// Addresses maps a currency code to the wallet addresses explored
	// for it.
	Addresses map[string][]string `yaml:"addresses" mapstructure:"addresses"`
}

// LoggingConfig contains logging system configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     30 * time.Second,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				Password: "",
				DB:       0,
			},
		},
		Exchanges: ExchangesConfig{
			Yobit: YobitConfig{
				WatchedPairs: []string{"BTC/USDT", "ETH/USDT", "LTC/USDT"},
			},
		},
		Portfolio: PortfolioConfig{
			Quote: "USDT",
			Fee:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that would break clients at
// runtime.
func (c *Config) Validate() error {
	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}
	if err := c.validatePortfolio(); err != nil {
		return fmt.Errorf("portfolio config validation failed: %w", err)
	}
	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	for _, pair := range c.Exchanges.Yobit.WatchedPairs {
		if !strings.Contains(pair, "/") {
			return fmt.Errorf("invalid watched pair: %q, expected BASE/QUOTE", pair)
		}
	}
	return nil
}

func (c *Config) validateCache() error {
	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, c.Cache.Backend) {
		return fmt.Errorf("invalid cache backend: %s, must be one of: %v", c.Cache.Backend, validBackends)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %v", c.Cache.TTL)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when backend is redis")
	}
	return nil
}

func (c *Config) validatePortfolio() error {
	if c.Portfolio.Quote == "" {
		return fmt.Errorf("portfolio quote currency is required")
	}
	if c.Portfolio.Fee < 0 || c.Portfolio.Fee >= 1 {
		return fmt.Errorf("portfolio fee must be in [0, 1), got: %v", c.Portfolio.Fee)
	}
	return nil
}

func (c *Config) validateLogging() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", c.Logging.Level, validLevels)
	}
	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", c.Logging.Format, validFormats)
	}
	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
