package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/crypto_narratives/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "config/config.yaml"

	envConfigPath   = "CONFIG_PATH"
	envCoinGeckoKey = "COINGECKO_API_KEY"
	envLogLevel     = "LOG_LEVEL"
)

type Config struct {
	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	CoinGecko struct {
		RESTEndpoint string `yaml:"rest_endpoint"`
		APIKey       string `yaml:"api_key"`
		Days         int    `yaml:"days"`
		TimeoutMs    int    `yaml:"timeout_ms"`
	} `yaml:"coingecko"`
	Binance struct {
		RESTEndpoint     string `yaml:"rest_endpoint"`
		Symbol           string `yaml:"symbol"`
		Period           string `yaml:"period"`
		OpenInterestRows int    `yaml:"open_interest_limit"`
		LiquidationRows  int    `yaml:"liquidation_limit"`
		TimeoutMs        int    `yaml:"timeout_ms"`
	} `yaml:"binance"`
	Narratives []domain.Narrative `yaml:"narratives"`
	Cache      struct {
		TTLSeconds int `yaml:"ttl_seconds"`
	} `yaml:"cache"`
	Tracker struct {
		RefreshMs int `yaml:"refresh_ms"`
	} `yaml:"tracker"`
	Archive struct {
		Path string `yaml:"path"`
	} `yaml:"archive"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Logging.Level = "info"
	cfg.Logging.Encoding = "json"
	cfg.Server.Port = 8080
	cfg.CoinGecko.RESTEndpoint = "https://api.coingecko.com/api/v3"
	cfg.CoinGecko.Days = 730
	cfg.CoinGecko.TimeoutMs = 30000
	cfg.Binance.RESTEndpoint = "https://fapi.binance.com"
	cfg.Binance.Symbol = "BTCUSDT"
	cfg.Binance.Period = "5m"
	cfg.Binance.OpenInterestRows = 24
	cfg.Binance.LiquidationRows = 20
	cfg.Binance.TimeoutMs = 30000
	cfg.Narratives = domain.DefaultNarratives()
	cfg.Cache.TTLSeconds = 3600
	cfg.Tracker.RefreshMs = 30000
	return cfg
}

// Load reads .env (if any), then the YAML file at path over the defaults.
// An empty path resolves from CONFIG_PATH, then DefaultPath. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		// narratives in the file replace the defaults rather than merging
		cfg.Narratives = nil
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if len(cfg.Narratives) == 0 {
			cfg.Narratives = domain.DefaultNarratives()
		}
	}

	if key := os.Getenv(envCoinGeckoKey); key != "" {
		cfg.CoinGecko.APIKey = key
	}
	if lvl := os.Getenv(envLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Narratives))
	for _, n := range c.Narratives {
		if n.Name == "" {
			return errors.New("narrative name is required")
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate narrative %q", n.Name)
		}
		seen[n.Name] = true
		if len(n.Tokens) == 0 {
			return fmt.Errorf("narrative %q has no tokens", n.Name)
		}
	}
	if c.CoinGecko.Days <= 0 {
		return fmt.Errorf("coingecko.days must be positive, got %d", c.CoinGecko.Days)
	}
	if c.Binance.Symbol == "" {
		return errors.New("binance.symbol is required")
	}
	if c.Tracker.RefreshMs <= 0 {
		return fmt.Errorf("tracker.refresh_ms must be positive, got %d", c.Tracker.RefreshMs)
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Tracker.RefreshMs) * time.Millisecond
}

func (c *Config) CoinGeckoTimeout() time.Duration {
	return time.Duration(c.CoinGecko.TimeoutMs) * time.Millisecond
}

func (c *Config) BinanceTimeout() time.Duration {
	return time.Duration(c.Binance.TimeoutMs) * time.Millisecond
}
