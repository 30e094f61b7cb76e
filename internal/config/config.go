package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// Config holds the overall configuration for the application. Provider
// endpoints and API keys live here (or in the environment), never as literals
// in adapter code.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Ethereum      EthereumConfig      `yaml:"ethereum"`
	BlockCypher   BlockCypherConfig   `yaml:"blockCypher"`
	Kraken        KrakenConfig        `yaml:"kraken"`
	CoinMarketCap CoinMarketCapConfig `yaml:"coinMarketCap"`
	RateCache     RateCacheConfig     `yaml:"rateCache"`
	Aggregator    AggregatorConfig    `yaml:"aggregator"`
	Logging       LoggingConfig       `yaml:"logging"`
	Profile       ProfileConfig       `yaml:"profile"`
}

// ServerConfig holds the HTTP daemon configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// EthereumConfig holds the configuration for the Ethereum node client.
type EthereumConfig struct {
	NodeURL              string `yaml:"nodeURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	ScanBlockWindow      int64  `yaml:"scanBlockWindow"`
}

// BlockCypherConfig holds the configuration for the BlockCypher client.
type BlockCypherConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// KrakenConfig holds the configuration for the Kraken exchange client.
type KrakenConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// CoinMarketCapConfig holds the configuration for the price-conversion client.
type CoinMarketCapConfig struct {
	BaseURL              string `yaml:"baseURL"`
	APIKey               string `yaml:"apiKey"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// RateCacheConfig holds configuration for caching fetched exchange rates.
type RateCacheConfig struct {
	TTLMinutes             int `yaml:"ttlMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// AggregatorConfig holds configuration for the wallet aggregation fan-out.
type AggregatorConfig struct {
	MaxConcurrentRequests int          `yaml:"maxConcurrentRequests"`
	RateLimit             int          `yaml:"rateLimit"`
	BurstLimit            int          `yaml:"burstLimit"`
	ReferenceAsset        entity.Asset `yaml:"referenceAsset"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g. "debug", "info", "warn", "error"
}

// ProfileConfig holds the location of the persisted monitoring profile.
type ProfileConfig struct {
	Path string `yaml:"path"`
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// environment overrides. A missing file is not an error: the CLI must work
// from defaults plus environment alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
		logrus.Infof("Loaded configuration from %s", path)
	case os.IsNotExist(err):
		logrus.Debugf("Config file %s not found, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.Ethereum.NodeURL == "" {
		logrus.Warn("Ethereum node URL is not configured; ETH queries will fail. Set ethereum.nodeURL or ETH_NODE_URL.")
	}
	if cfg.CoinMarketCap.APIKey == "" {
		logrus.Warn("CoinMarketCap API key is not configured; rate queries will fail. Set coinMarketCap.apiKey or CMC_API_KEY.")
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Ethereum.RequestTimeoutMillis == 0 {
		cfg.Ethereum.RequestTimeoutMillis = 10000
	}
	if cfg.Ethereum.ScanBlockWindow == 0 {
		cfg.Ethereum.ScanBlockWindow = 10000
	}
	if cfg.BlockCypher.BaseURL == "" {
		cfg.BlockCypher.BaseURL = "https://api.blockcypher.com"
	}
	if cfg.BlockCypher.RequestTimeoutMillis == 0 {
		cfg.BlockCypher.RequestTimeoutMillis = 10000
	}
	if cfg.Kraken.BaseURL == "" {
		cfg.Kraken.BaseURL = "https://api.kraken.com"
	}
	if cfg.Kraken.RequestTimeoutMillis == 0 {
		cfg.Kraken.RequestTimeoutMillis = 10000
	}
	if cfg.CoinMarketCap.BaseURL == "" {
		cfg.CoinMarketCap.BaseURL = "https://pro-api.coinmarketcap.com"
	}
	if cfg.CoinMarketCap.RequestTimeoutMillis == 0 {
		cfg.CoinMarketCap.RequestTimeoutMillis = 10000
	}
	if cfg.RateCache.TTLMinutes == 0 {
		cfg.RateCache.TTLMinutes = 5
	}
	if cfg.RateCache.CleanupIntervalMinutes == 0 {
		cfg.RateCache.CleanupIntervalMinutes = 10
	}
	if cfg.Aggregator.MaxConcurrentRequests == 0 {
		cfg.Aggregator.MaxConcurrentRequests = 8
	}
	if cfg.Aggregator.RateLimit == 0 {
		cfg.Aggregator.RateLimit = 10
	}
	if cfg.Aggregator.BurstLimit == 0 {
		cfg.Aggregator.BurstLimit = 5
	}
	if cfg.Aggregator.ReferenceAsset == "" {
		cfg.Aggregator.ReferenceAsset = entity.AssetUSD
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Profile.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.Profile.Path = filepath.Join(home, ".config", "cryptomonitor", "profile.yaml")
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ETH_NODE_URL"); v != "" {
		cfg.Ethereum.NodeURL = v
	}
	if v := os.Getenv("CMC_API_KEY"); v != "" {
		cfg.CoinMarketCap.APIKey = v
	}
	if v := os.Getenv("CRYPTOMONITOR_PROFILE"); v != "" {
		cfg.Profile.Path = v
	}
}
