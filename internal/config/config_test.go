package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != ":8080" {
		t.Fatalf("default port is %q, want :8080", cfg.Server.Port)
	}
	if cfg.Kraken.BaseURL != "https://api.kraken.com" {
		t.Fatalf("default Kraken URL is %q", cfg.Kraken.BaseURL)
	}
	if cfg.BlockCypher.BaseURL != "https://api.blockcypher.com" {
		t.Fatalf("default BlockCypher URL is %q", cfg.BlockCypher.BaseURL)
	}
	if cfg.Aggregator.ReferenceAsset != entity.AssetUSD {
		t.Fatalf("default reference asset is %s, want USD", cfg.Aggregator.ReferenceAsset)
	}
	if cfg.Profile.Path == "" {
		t.Fatal("default profile path is empty")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: ":9090"
ethereum:
  nodeURL: "http://node.example:8545"
aggregator:
  referenceAsset: EUR
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != ":9090" {
		t.Fatalf("port is %q, want :9090", cfg.Server.Port)
	}
	if cfg.Ethereum.NodeURL != "http://node.example:8545" {
		t.Fatalf("node URL is %q", cfg.Ethereum.NodeURL)
	}
	if cfg.Aggregator.ReferenceAsset != entity.AssetEUR {
		t.Fatalf("reference asset is %s, want EUR", cfg.Aggregator.ReferenceAsset)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level is %q, want debug", cfg.Logging.Level)
	}
	// Unset keys still get defaults.
	if cfg.Kraken.BaseURL != "https://api.kraken.com" {
		t.Fatalf("default Kraken URL is %q", cfg.Kraken.BaseURL)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ETH_NODE_URL", "http://override.example:8545")
	t.Setenv("CMC_API_KEY", "env-key")
	t.Setenv("CRYPTOMONITOR_PROFILE", "/tmp/override-profile.yaml")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Ethereum.NodeURL != "http://override.example:8545" {
		t.Fatalf("node URL is %q, want the env override", cfg.Ethereum.NodeURL)
	}
	if cfg.CoinMarketCap.APIKey != "env-key" {
		t.Fatalf("API key is %q, want the env override", cfg.CoinMarketCap.APIKey)
	}
	if cfg.Profile.Path != "/tmp/override-profile.yaml" {
		t.Fatalf("profile path is %q, want the env override", cfg.Profile.Path)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected malformed YAML to be rejected")
	}
}
