// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, environment overrides, default
// value application, and checks every field the balance command relies on.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file consulted when --config is not given.
const DefaultPath = "config/balance.yaml"

// EnvPrefix prefixes every environment override. Keys follow the field
// path, e.g. BALANCE_SERVICE_URL or BALANCE_SERVICE_MAX_RETRIES.
const EnvPrefix = "BALANCE"

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	Service      Service       `yaml:"service"`
	PollInterval time.Duration `yaml:"poll_interval" split_words:"true"` // Driver loop step interval
	LogLevel     string        `yaml:"log_level" split_words:"true"`
	Metrics      Metrics       `yaml:"metrics"`
}

// Service describes the indexing service connection.
type Service struct {
	URL        string        `yaml:"url" split_words:"true"`         // Esplora base URL (supports ${VAR} expansion)
	Network    string        `yaml:"network" split_words:"true"`     // mainnet, testnet, regtest, signet
	Timeout    time.Duration `yaml:"timeout" split_words:"true"`     // Per-request HTTP timeout
	MaxRetries int           `yaml:"max_retries" split_words:"true"` // 0 = no retries
	RateLimit  int           `yaml:"rate_limit" split_words:"true"`  // Requests per second, 0 = unlimited
	Workers    int           `yaml:"workers" split_words:"true"`     // Execution pool size
}

// Metrics configures the optional Pushgateway export.
type Metrics struct {
	Pushgateway string `yaml:"pushgateway" split_words:"true"` // Empty disables pushing
	Job         string `yaml:"job" split_words:"true"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Service: Service{
			URL:        "https://blockstream.info/api",
			Network:    "mainnet",
			Timeout:    10 * time.Second,
			MaxRetries: 2,
			RateLimit:  10,
			Workers:    1,
		},
		PollInterval: 100 * time.Millisecond,
		LogLevel:     "warn",
		Metrics: Metrics{
			Job: "balance",
		},
	}
}

// Validate checks the configuration. It returns warnings for suspicious but
// usable values.
func (c *Config) Validate() (warnings []string, err error) {
	if c.Service.URL == "" {
		return nil, fmt.Errorf("service.url is required")
	}
	u, err := url.Parse(c.Service.URL)
	if err != nil {
		return nil, fmt.Errorf("service.url: invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("service.url: invalid url (missing scheme or host)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("service.url: invalid url scheme %q (expected http or https)", u.Scheme)
	}

	switch c.Service.Network {
	case "mainnet", "testnet", "regtest", "signet":
	default:
		return nil, fmt.Errorf("service.network: unsupported network %q", c.Service.Network)
	}

	if c.Service.Timeout <= 0 {
		return nil, fmt.Errorf("service.timeout must be > 0")
	}
	if c.Service.MaxRetries < 0 {
		return nil, fmt.Errorf("service.max_retries must be >= 0")
	}
	if c.Service.RateLimit < 0 {
		return nil, fmt.Errorf("service.rate_limit must be >= 0")
	}
	if c.Service.Workers < 1 {
		return nil, fmt.Errorf("service.workers must be >= 1")
	}
	if c.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be > 0")
	}
	if c.Metrics.Pushgateway != "" && c.Metrics.Job == "" {
		return nil, fmt.Errorf("metrics.job is required when metrics.pushgateway is set")
	}

	const low = 500 * time.Millisecond
	const high = 2 * time.Minute
	if c.Service.Timeout < low {
		warnings = append(warnings, fmt.Sprintf("service timeout is very low (%s); requests may fail under normal network jitter", c.Service.Timeout))
	}
	if c.Service.Timeout > high {
		warnings = append(warnings, fmt.Sprintf("service timeout is very high (%s); failures may take a long time to surface", c.Service.Timeout))
	}
	if c.PollInterval > time.Second {
		warnings = append(warnings, fmt.Sprintf("poll interval is high (%s); results will be slow to arrive", c.PollInterval))
	}

	return warnings, nil
}

// Load builds the configuration from defaults, the YAML file at path and
// BALANCE_* environment overrides, in that order.
//
// A missing file is only an error when required is set; the command passes
// required=true when the user named the file explicitly.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Expand environment variables in the YAML content
		// This allows URLs like: url: ${ESPLORA_URL}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	return cfg, nil
}
