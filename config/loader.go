package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader instance.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// Load loads configuration from files and environment variables. A missing
// config file is not an error; defaults and env vars still apply.
func (l *Loader) Load() (*Config, error) {
	l.setupViper()

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// setupViper configures Viper to read files and env vars.
func (l *Loader) setupViper() {
	l.v.SetConfigName("crypto-apis")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("./configs")
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/crypto-apis")

	// Env vars: CRYPTO_APIS_CACHE_BACKEND, CRYPTO_APIS_EXCHANGES_BINANCE_KEY
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("CRYPTO_APIS")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.bindEnvVars()
}

// bindEnvVars maps short environment variables to configuration keys.
func (l *Loader) bindEnvVars() {
	envMappings := map[string]string{
		"cache.backend":               "CACHE_BACKEND",
		"cache.ttl":                   "CACHE_TTL",
		"cache.redis.addr":            "REDIS_ADDR",
		"cache.redis.password":        "REDIS_PASSWORD",
		"cache.redis.db":              "REDIS_DB",
		"exchanges.binance.key":       "BINANCE_API_KEY",
		"exchanges.binance.secret":    "BINANCE_API_SECRET",
		"exchanges.exmo.key":          "EXMO_API_KEY",
		"exchanges.exmo.secret":       "EXMO_API_SECRET",
		"exchanges.yobit.key":         "YOBIT_API_KEY",
		"exchanges.yobit.secret":      "YOBIT_API_SECRET",
		"portfolio.quote":             "PORTFOLIO_QUOTE",
		"portfolio.fee":               "PORTFOLIO_FEE",
		"explorers.ethplorer_api_key": "ETHPLORER_API_KEY",
		"logging.level":               "LOG_LEVEL",
		"logging.format":              "LOG_FORMAT",
	}

	for configKey, envVar := range envMappings {
		_ = l.v.BindEnv(configKey, envVar)
	}
}
