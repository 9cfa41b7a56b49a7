package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dougsko/rigd/pkg/logging"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes the environment variables overriding the config
// file, e.g. RIGD_WEB_PORT or RIGD_PROFILES_PATH.
const EnvPrefix = "RIGD"

// Profile sources
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Config represents the rigd configuration
type Config struct {
	Rig struct {
		// Timing in milliseconds
		SlowInterval    int `yaml:"slow_interval" split_words:"true"`
		StartupInterval int `yaml:"startup_interval" split_words:"true"`
		LockWait        int `yaml:"lock_wait" split_words:"true"`
		SettleDelay     int `yaml:"settle_delay" split_words:"true"`

		// AutoOpen connects to the selected profile at startup
		AutoOpen bool `yaml:"auto_open" split_words:"true"`
	} `yaml:"rig"`

	Profiles struct {
		Source  string `yaml:"source"`
		Path    string `yaml:"path"`
		Current string `yaml:"current"` // sqlite only: selected at startup
		Watch   bool   `yaml:"watch"`   // file only: reload on change
	} `yaml:"profiles"`

	Web struct {
		Port        int    `yaml:"port"`
		BindAddress string `yaml:"bind_address" split_words:"true"`
	} `yaml:"web"`

	API struct {
		UnixSocket string `yaml:"unix_socket" split_words:"true"`
	} `yaml:"api"`

	Logging logging.Config `yaml:"logging"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	var config Config
	config.setDefaults()
	return &config
}

// LoadConfig loads configuration from a YAML file and applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	config.setDefaults()
	return &config, nil
}

func (c *Config) setDefaults() {
	if c.Rig.SlowInterval == 0 {
		c.Rig.SlowInterval = 2000
	}
	if c.Rig.StartupInterval == 0 {
		c.Rig.StartupInterval = 500
	}
	if c.Rig.LockWait == 0 {
		c.Rig.LockWait = 200
	}
	if c.Rig.SettleDelay == 0 {
		c.Rig.SettleDelay = 100
	}
	if c.Profiles.Source == "" {
		c.Profiles.Source = SourceFile
	}
	if c.Profiles.Path == "" {
		switch c.Profiles.Source {
		case SourceSQLite:
			c.Profiles.Path = "./rigd.db"
		default:
			c.Profiles.Path = "./profiles.yaml"
		}
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.BindAddress == "" {
		c.Web.BindAddress = "127.0.0.1"
	}
	if c.API.UnixSocket == "" {
		c.API.UnixSocket = "/tmp/rigd.sock"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSize == 0 {
		c.Logging.MaxSize = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge == 0 {
		c.Logging.MaxAge = 28
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Profiles.Source {
	case SourceFile, SourceSQLite:
	default:
		return fmt.Errorf("unknown profile source %q", c.Profiles.Source)
	}
	if c.Profiles.Path == "" {
		return fmt.Errorf("profile path is required")
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port %d", c.Web.Port)
	}
	if c.Rig.SlowInterval < 0 || c.Rig.StartupInterval < 0 || c.Rig.LockWait < 0 {
		return fmt.Errorf("rig intervals must not be negative")
	}
	return nil
}

// WebAddr is the listen address of the HTTP API
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddressOrAny(), c.Web.Port)
}

// BindAddressOrAny returns the bind address, "" meaning all interfaces
func (c *Config) BindAddressOrAny() string {
	if c.Web.BindAddress == "0.0.0.0" {
		return ""
	}
	return c.Web.BindAddress
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// SlowInterval is the poll interval while no rig is open
func (c *Config) SlowInterval() time.Duration { return millis(c.Rig.SlowInterval) }

// StartupInterval is the poll interval after a (re)connect
func (c *Config) StartupInterval() time.Duration { return millis(c.Rig.StartupInterval) }

// LockWait bounds how long a poll waits for the rig
func (c *Config) LockWait() time.Duration { return millis(c.Rig.LockWait) }

// SettleDelay is the pause after each rig write, negative disables it
func (c *Config) SettleDelay() time.Duration { return millis(c.Rig.SettleDelay) }
