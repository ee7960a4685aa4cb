// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
)

type Config struct {
	RPCList        []string           `mapstructure:"rpc_list"`
	Cluster        string             `mapstructure:"cluster"`
	KeypairPath    string             `mapstructure:"keypair_path"`
	DataDir        string             `mapstructure:"data_dir"`
	DatabaseDSN    string             `mapstructure:"database_dsn"`
	RecordFailed   bool               `mapstructure:"record_failed"`
	Confirmation   ConfirmationConfig `mapstructure:"confirmation"`
	RPCRateLimit   float64            `mapstructure:"rpc_rate_limit"`
	RPCBurst       int                `mapstructure:"rpc_burst"`
	PriceURL       string             `mapstructure:"price_url"`
	PriceRefreshMs int                `mapstructure:"price_refresh_ms"`
	PriceRetries   int                `mapstructure:"price_retries"`
	DebugLogging   bool               `mapstructure:"debug_logging"`
	LogFile        string             `mapstructure:"log_file"`
}

type ConfirmationConfig struct {
	Mode           string `mapstructure:"mode"`
	TimeoutMs      int    `mapstructure:"timeout_ms"`
	PollIntervalMs int    `mapstructure:"poll_interval_ms"`
	DelayMs        int    `mapstructure:"delay_ms"`
}

const (
	EnvPrefix = "SOL_SPLITTER"

	DefaultCluster              = "devnet"
	DefaultConfirmationMode     = "poll"
	DefaultConfirmationTimeout  = 60000
	DefaultConfirmationInterval = 500
	DefaultConfirmationDelay    = 3000
	DefaultRPCRateLimit         = 10
	DefaultRPCBurst             = 20
	DefaultPriceURL             = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	DefaultPriceRefresh         = 60000
	DefaultPriceRetries         = 3
)

var clusterRPC = map[blockchain.Cluster]string{
	blockchain.Devnet:      "https://api.devnet.solana.com",
	blockchain.Testnet:     "https://api.testnet.solana.com",
	blockchain.MainnetBeta: "https://api.mainnet-beta.solana.com",
}

// LoadConfig reads path (optional), overlays SOL_SPLITTER_* environment variables and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"cluster":                       DefaultCluster,
		"record_failed":                 false,
		"confirmation.mode":             DefaultConfirmationMode,
		"confirmation.timeout_ms":       DefaultConfirmationTimeout,
		"confirmation.poll_interval_ms": DefaultConfirmationInterval,
		"confirmation.delay_ms":         DefaultConfirmationDelay,
		"rpc_rate_limit":                DefaultRPCRateLimit,
		"rpc_burst":                     DefaultRPCBurst,
		"price_url":                     DefaultPriceURL,
		"price_refresh_ms":              DefaultPriceRefresh,
		"price_retries":                 DefaultPriceRetries,
		"debug_logging":                 false,
		"keypair_path":                  "",
		"data_dir":                      "",
		"database_dsn":                  "",
		"log_file":                      "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	loadEnvironmentVariables(v, &cfg)
	if err := applyDerivedDefaults(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// applyDerivedDefaults fills values that depend on other settings or on the user's home.
func applyDerivedDefaults(cfg *Config) error {
	cluster, err := blockchain.ParseCluster(cfg.Cluster)
	if err != nil {
		return err
	}
	cfg.Cluster = string(cluster)

	if len(cfg.RPCList) == 0 {
		cfg.RPCList = []string{clusterRPC[cluster]}
	}

	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("cannot determine data directory: %w", err)
		}
		cfg.DataDir = filepath.Join(base, "sol-splitter")
	}
	if cfg.KeypairPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.KeypairPath = filepath.Join(home, ".config", "solana", "id.json")
		}
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "logs", "splitter.log")
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL %q: %w", rpcURL, err)
		}
	}
	if cfg.PriceURL != "" {
		if err := validateURLWithCache(cfg.PriceURL, "http"); err != nil {
			return fmt.Errorf("invalid price_url: %w", err)
		}
	}
	if cfg.DatabaseDSN != "" && strings.Contains(cfg.DatabaseDSN, "://") {
		if err := validateURLWithCache(cfg.DatabaseDSN, "postgres"); err != nil {
			return fmt.Errorf("invalid database_dsn: %w", err)
		}
	}
	switch cfg.Confirmation.Mode {
	case "poll", "delay":
	default:
		return fmt.Errorf("invalid confirmation.mode %q (expected poll or delay)", cfg.Confirmation.Mode)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.Confirmation.TimeoutMs <= 0 {
		return errors.New("invalid confirmation.timeout_ms")
	}
	if cfg.Confirmation.PollIntervalMs <= 0 {
		return errors.New("invalid confirmation.poll_interval_ms")
	}
	if cfg.Confirmation.DelayMs < 0 {
		return errors.New("invalid confirmation.delay_ms")
	}
	if cfg.RPCRateLimit < 0 {
		return errors.New("invalid rpc_rate_limit")
	}
	if cfg.RPCBurst < 0 {
		return errors.New("invalid rpc_burst")
	}
	if cfg.PriceRefreshMs <= 0 {
		return errors.New("invalid price_refresh_ms")
	}
	if cfg.PriceRetries < 0 {
		return errors.New("invalid price_retries")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

// loadEnvironmentVariables reads the comma-separated RPC list. rpc_list has no default,
// so viper leaves it out of Unmarshal when it only comes from the environment.
func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	envRPCList := v.GetString("RPC_LIST")
	if envRPCList == "" {
		return
	}
	var cleanRPCs []string
	for _, rpc := range strings.Split(envRPCList, ",") {
		if clean := strings.TrimSpace(rpc); clean != "" {
			cleanRPCs = append(cleanRPCs, clean)
		}
	}
	if len(cleanRPCs) > 0 {
		cfg.RPCList = cleanRPCs
	}
}

func (c *Config) ConfirmationTimeout() time.Duration {
	return time.Duration(c.Confirmation.TimeoutMs) * time.Millisecond
}

func (c *Config) ConfirmationPollInterval() time.Duration {
	return time.Duration(c.Confirmation.PollIntervalMs) * time.Millisecond
}

func (c *Config) ConfirmationDelay() time.Duration {
	return time.Duration(c.Confirmation.DelayMs) * time.Millisecond
}

func (c *Config) PriceRefresh() time.Duration {
	return time.Duration(c.PriceRefreshMs) * time.Millisecond
}

// ExplorerCluster is the cluster used in explorer links.
func (c *Config) ExplorerCluster() blockchain.Cluster {
	return blockchain.Cluster(c.Cluster)
}
