package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingOptionalFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = cfg.Validate()
	require.NoError(t, err)
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	t.Setenv("TEST_ESPLORA_URL", "https://mempool.space/testnet/api")
	t.Setenv("BALANCE_SERVICE_WORKERS", "4")

	path := writeConfig(t, `
service:
  url: ${TEST_ESPLORA_URL}
  network: testnet
  timeout: 3s
  max_retries: 1
poll_interval: 50ms
log_level: debug
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "https://mempool.space/testnet/api", cfg.Service.URL)
	assert.Equal(t, "testnet", cfg.Service.Network)
	assert.Equal(t, 3*time.Second, cfg.Service.Timeout)
	assert.Equal(t, 1, cfg.Service.MaxRetries)
	assert.Equal(t, 4, cfg.Service.Workers)
	assert.Equal(t, 10, cfg.Service.RateLimit, "unset fields keep defaults")
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "balance", cfg.Metrics.Job)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "service: [unclosed")
	_, err := Load(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty_url", mutate: func(c *Config) { c.Service.URL = "" }, wantErr: "service.url is required"},
		{name: "no_host", mutate: func(c *Config) { c.Service.URL = "http://" }, wantErr: "missing scheme or host"},
		{name: "bad_scheme", mutate: func(c *Config) { c.Service.URL = "ftp://example.com" }, wantErr: "invalid url scheme"},
		{name: "bad_network", mutate: func(c *Config) { c.Service.Network = "dogenet" }, wantErr: "unsupported network"},
		{name: "zero_timeout", mutate: func(c *Config) { c.Service.Timeout = 0 }, wantErr: "service.timeout"},
		{name: "negative_retries", mutate: func(c *Config) { c.Service.MaxRetries = -1 }, wantErr: "max_retries"},
		{name: "negative_rate", mutate: func(c *Config) { c.Service.RateLimit = -1 }, wantErr: "rate_limit"},
		{name: "no_workers", mutate: func(c *Config) { c.Service.Workers = 0 }, wantErr: "workers"},
		{name: "zero_interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: "poll_interval"},
		{name: "push_without_job", mutate: func(c *Config) {
			c.Metrics.Pushgateway = "http://localhost:9091"
			c.Metrics.Job = ""
		}, wantErr: "metrics.job"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			_, err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	cfg := Default()
	cfg.Service.Timeout = 100 * time.Millisecond
	cfg.PollInterval = 5 * time.Second

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
}
