// Package config provides configuration management for tracekeep.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for configuration.
const (
	DefaultReportDir    = "./reports"
	DefaultQuietPeriod  = 10 * time.Millisecond
	DefaultTopic        = "tracekeep.reports"
	DefaultGistEndpoint = "https://api.github.com/gists"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Environment variable names.
const (
	EnvReportDir   = "TRACEKEEP_REPORT_DIR"
	EnvQuietPeriod = "TRACEKEEP_QUIET_PERIOD"
	EnvBrokers     = "REDPANDA_BROKERS"
	EnvDatabaseURL = "DATABASE_URL"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// Config holds the application configuration.
type Config struct {
	// ReportDir is where numbered report files are written.
	ReportDir string `yaml:"report_dir"`

	// QuietPeriod is how long the stream must be idle before a trace is sealed.
	QuietPeriod time.Duration `yaml:"quiet_period"`

	// ExtendedInfo adds the component list to report headers.
	ExtendedInfo bool `yaml:"extended_info"`

	// Components maps a component name to the dotted package prefixes it owns.
	Components map[string][]string `yaml:"components,omitempty"`

	// Brokers is the Redpanda seed list. Empty means in-memory delivery.
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic"`

	// PostgresDSN enables the Postgres report index. Empty means in-memory.
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`

	Publish PublishConfig `yaml:"publish"`
	Log     LogConfig     `yaml:"log"`
}

// PublishConfig configures the paste service used by `publish`.
type PublishConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token,omitempty"`
	Public   bool   `yaml:"public"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ReportDir:    DefaultReportDir,
		QuietPeriod:  DefaultQuietPeriod,
		ExtendedInfo: true,
		Components:   map[string][]string{},
		Topic:        DefaultTopic,
		Publish: PublishConfig{
			Endpoint: DefaultGistEndpoint,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides and validates.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() error {
	if dir := os.Getenv(EnvReportDir); dir != "" {
		c.ReportDir = dir
	}
	if v := os.Getenv(EnvQuietPeriod); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvQuietPeriod, err)
		}
		c.QuietPeriod = d
	}
	if v := os.Getenv(EnvBrokers); v != "" {
		c.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Brokers = append(c.Brokers, b)
			}
		}
	}
	if dsn := os.Getenv(EnvDatabaseURL); dsn != "" {
		c.PostgresDSN = dsn
	}
	if token := os.Getenv(EnvGitHubToken); token != "" {
		c.Publish.Token = token
	}
	return nil
}

// Validate checks a configuration for errors.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.ReportDir) == "" {
		return errors.New("report_dir: must not be empty")
	}
	if cfg.QuietPeriod <= 0 {
		return fmt.Errorf("quiet_period: must be positive, got %s", cfg.QuietPeriod)
	}
	if cfg.Topic == "" {
		return errors.New("topic: must not be empty")
	}

	for name, prefixes := range cfg.Components {
		if name == "" {
			return errors.New("components: component name must not be empty")
		}
		for i, p := range prefixes {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("components.%s[%d]: prefix must not be empty", name, i)
			}
		}
	}

	switch cfg.Log.Level {
	case "", "debug", "info", "error":
	default:
		return fmt.Errorf("log.level: unsupported level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("log.format: unsupported format %q", cfg.Log.Format)
	}
	return nil
}

// ComponentNames returns the configured component names.
func (c *Config) ComponentNames() []string {
	names := make([]string, 0, len(c.Components))
	for name := range c.Components {
		names = append(names, name)
	}
	return names
}
