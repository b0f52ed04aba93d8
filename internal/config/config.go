package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedChain is returned for any chain key outside the configured set.
var ErrUnsupportedChain = errors.New("unsupported chain")

// Chain roles. Burn and transfer factories are distinct configs even when
// they live on the same chain.
const (
	ChainRoleBurn     = "burn"
	ChainRoleTransfer = "transfer"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	NATS       NATSConfig       `yaml:"nats"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	Circle     CircleConfig     `yaml:"circle"`
	CORS       CORSConfig       `yaml:"cors"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
	Timeout int    `yaml:"timeout"`
}

// BlockchainConfig blockchain configuration
type BlockchainConfig struct {
	// Operator key is shared by all chains and must be the owner of every
	// factory it calls. Loaded from env when not set in the file.
	OperatorPrivateKey string `yaml:"operatorPrivateKey"`

	// CCTP destination domain for burn wallets (the transfer chain's domain).
	DestinationDomain uint32 `yaml:"destinationDomain"`

	Chains map[string]ChainConfig `yaml:"chains"`
}

// ChainConfig per-chain, per-factory-role configuration. Immutable after load.
type ChainConfig struct {
	Key                string `yaml:"-"` // filled from the map key
	Name               string `yaml:"name"`
	RPCEndpoint        string `yaml:"rpcEndpoint"`
	FactoryAddress     string `yaml:"factoryAddress"`
	MessageTransmitter string `yaml:"messageTransmitter"`
	Role               string `yaml:"role"` // burn | transfer
	ChainID            int64  `yaml:"chainId"`
	Domain             uint32 `yaml:"domain"` // CCTP domain, distinct from chainId
}

// CircleConfig attestation service configuration
type CircleConfig struct {
	AttestationBaseURL string `yaml:"attestationBaseUrl"`
	FetchRetries       int    `yaml:"fetchRetries"`
	FetchRetryInterval int    `yaml:"fetchRetryInterval"` // seconds between polls
	InitialWait        int    `yaml:"initialWait"`        // seconds before the first poll
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"`
}

var AppConfig *Config

// LoadConfig loads the configuration file, applies env overrides and
// validates the chain set. Process-wide, read-only after this returns.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	for key, chain := range config.Blockchain.Chains {
		chain.Key = key
		if chain.RPCEndpoint == "" {
			return fmt.Errorf("chain %s: rpcEndpoint is required", key)
		}
		if chain.FactoryAddress == "" {
			return fmt.Errorf("chain %s: factoryAddress is required", key)
		}
		if chain.Role != ChainRoleBurn && chain.Role != ChainRoleTransfer {
			return fmt.Errorf("chain %s: role must be %q or %q", key, ChainRoleBurn, ChainRoleTransfer)
		}
		config.Blockchain.Chains[key] = chain
	}

	if config.Blockchain.OperatorPrivateKey == "" {
		return fmt.Errorf("operator private key is required (set OPERATOR_PRIVATE_KEY)")
	}
	if _, err := config.TransferChain(); err != nil {
		return err
	}

	AppConfig = &config
	log.Printf("Configuration loaded from %s (%d chains)", configPath, len(config.Blockchain.Chains))
	return nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("OPERATOR_PRIVATE_KEY"); v != "" {
		config.Blockchain.OperatorPrivateKey = strings.TrimPrefix(v, "0x")
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.Database.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		config.NATS.URL = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("IRIS_API_URL"); v != "" {
		config.Circle.AttestationBaseURL = v
	}
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Circle.AttestationBaseURL == "" {
		config.Circle.AttestationBaseURL = "https://iris-api-sandbox.circle.com"
	}
	if config.Circle.FetchRetries == 0 {
		config.Circle.FetchRetries = 10
	}
	if config.Circle.FetchRetryInterval == 0 {
		config.Circle.FetchRetryInterval = 5
	}
	if config.Circle.InitialWait == 0 {
		config.Circle.InitialWait = 10
	}
}

// GetChain returns the configuration for a chain key, or ErrUnsupportedChain.
func (c *Config) GetChain(key string) (ChainConfig, error) {
	chain, ok := c.Blockchain.Chains[key]
	if !ok {
		return ChainConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedChain, key)
	}
	return chain, nil
}

// TransferChain returns the single chain configured with the transfer factory.
func (c *Config) TransferChain() (ChainConfig, error) {
	for _, chain := range c.Blockchain.Chains {
		if chain.Role == ChainRoleTransfer {
			return chain, nil
		}
	}
	return ChainConfig{}, fmt.Errorf("no chain configured with role %q", ChainRoleTransfer)
}

// BurnChains returns the burn-factory chains in stable key order.
func (c *Config) BurnChains() []ChainConfig {
	keys := make([]string, 0, len(c.Blockchain.Chains))
	for key, chain := range c.Blockchain.Chains {
		if chain.Role == ChainRoleBurn {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	chains := make([]ChainConfig, 0, len(keys))
	for _, key := range keys {
		chains = append(chains, c.Blockchain.Chains[key])
	}
	return chains
}
