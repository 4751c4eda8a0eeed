package config

import (
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"

	"github.com/tailscope/tailscope/pkg/follow"
)

// Config is the optional on-disk configuration. Command-line flags
// override anything set here.
type Config struct {
	Path         string        `yaml:"path,omitempty"`
	Backend      string        `yaml:"backend,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty"`
	MetricsAddr  string        `yaml:"metrics_addr,omitempty"`
}

func Default() *Config {
	return &Config{
		Backend:  string(follow.BackendNotify),
		LogLevel: "info",
	}
}

// Load reads and validates a configuration file. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := Default()

	if err := yaml.UnmarshalWithOptions(content, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("cannot parse configuration: %s", yaml.FormatError(err, false, false))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch follow.BackendKind(c.Backend) {
	case follow.BackendPoll, follow.BackendNotify, "":
	default:
		return fmt.Errorf("unknown backend %q (supported: poll, notify)", c.Backend)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("poll_interval cannot be negative")
	}

	if _, err := log.ParseLevel(c.LogLevel); c.LogLevel != "" && err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	return nil
}

// LogrusLevel returns the configured level, defaulting to info.
func (c *Config) LogrusLevel() log.Level {
	if c.LogLevel == "" {
		return log.InfoLevel
	}

	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}

	return lvl
}
