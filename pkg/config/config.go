// Package config provides a reusable loader for node configuration files and
// environment variable overrides. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"synnergy-network/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a node process (spec §6).
type Config struct {
	Port               int      `mapstructure:"port" json:"port"`
	Peers              []string `mapstructure:"peers" json:"peers"`
	MyAddress          string   `mapstructure:"my_address" json:"my_address"`
	PrivateKey         string   `mapstructure:"private_key" json:"private_key"`
	EnableMining       bool     `mapstructure:"enable_mining" json:"enable_mining"`
	EnableChainRequest bool     `mapstructure:"enable_chain_request" json:"enable_chain_request"`
	EnableLogging      bool     `mapstructure:"enable_logging" json:"enable_logging"`
	LogLevel           string   `mapstructure:"log_level" json:"log_level"`

	Storage struct {
		DataDir string `mapstructure:"data_dir" json:"data_dir"`
	} `mapstructure:"storage" json:"storage"`

	QueryServer struct {
		Enabled bool `mapstructure:"enabled" json:"enabled"`
		Port    int  `mapstructure:"port" json:"port"`
	} `mapstructure:"query_server" json:"query_server"`
}

// AppConfig holds the configuration loaded via Load.
var AppConfig Config

func setDefaults() {
	viper.SetDefault("port", 8765)
	viper.SetDefault("enable_mining", false)
	viper.SetDefault("enable_chain_request", true)
	viper.SetDefault("enable_logging", true)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("storage.data_dir", "./data")
	viper.SetDefault("query_server.enabled", true)
	viper.SetDefault("query_server.port", 8766)
}

// Load reads default.yaml from cmd/node/config or the working directory if
// one is there, merges the file at configPath on top when configPath is
// non-empty (a missing file at configPath is an error), fills unset keys
// from built-in defaults, then lets environment variables (optionally
// loaded from a .env file) override the result. The resulting configuration
// is stored in AppConfig and returned.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	viper.SetConfigType("yaml")
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/node/config")
	viper.AddConfigPath(".")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge config %s", configPath))
		}
	}

	viper.AutomaticEnv()
	bindEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// bindEnv wires the upper-case environment variable names spec §6 names
// (PORT, PEERS, MY_ADDRESS, ...) to their mapstructure keys. viper's
// automatic env matching upper-cases a key but keeps its dots, so nested
// keys such as storage.data_dir need an explicit binding to DATA_DIR.
func bindEnv() {
	pairs := map[string]string{
		"port":                 "PORT",
		"my_address":           "MY_ADDRESS",
		"private_key":          "PRIVATE_KEY",
		"enable_mining":        "ENABLE_MINING",
		"enable_chain_request": "ENABLE_CHAIN_REQUEST",
		"enable_logging":       "ENABLE_LOGGING",
		"log_level":            "LOG_LEVEL",
		"storage.data_dir":     "DATA_DIR",
		"query_server.enabled": "QUERY_SERVER_ENABLED",
		"query_server.port":    "QUERY_SERVER_PORT",
	}
	for key, env := range pairs {
		_ = viper.BindEnv(key, env)
	}
	_ = viper.BindEnv("peers", "PEERS")
}
