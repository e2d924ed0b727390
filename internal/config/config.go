// Package config loads the indexer's TOML configuration file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the root configuration loaded from the TOML file named by
// the CLI's --config flag. Field names mirror the kebab-case keys
// bitcoin-rpc.{address,username,password} and
// database.{user,password,host,port,database}.
type Config struct {
	BitcoinRPC BitcoinRPCConfig `mapstructure:"bitcoin-rpc"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// BitcoinRPCConfig holds the connection details for the upstream
// Bitcoin Core JSON-RPC endpoint.
type BitcoinRPCConfig struct {
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DatabaseConfig holds the connection details for the Postgres store.
type DatabaseConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
}

// Error is returned for any malformed or incomplete configuration
// file. It is fatal before the pipeline starts.
type Error struct {
	Path  string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: failed to load %q: %s", e.Path, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Load reads and parses the TOML file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, &Error{Path: path, Cause: err}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Path: path, Cause: err}
	}

	if err := cfg.validate(); err != nil {
		return nil, &Error{Path: path, Cause: err}
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BitcoinRPC.Address == "" {
		return fmt.Errorf("bitcoin-rpc.address is required")
	}
	if c.BitcoinRPC.Username == "" {
		return fmt.Errorf("bitcoin-rpc.username is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	return nil
}
