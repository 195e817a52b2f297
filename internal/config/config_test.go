package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONSOLE_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8000", cfg.OrdersService.BaseURL)
	assert.Equal(t, BackendHTTP, cfg.Backend)
	assert.Equal(t, 8, cfg.Reconciler.FanoutLimit)

	price, err := cfg.Items.PlaceholderPrice()
	require.NoError(t, err)
	assert.Equal(t, "23.4", price.String())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	yamlDoc := `
server:
  port: 9090
orders_service:
  base_url: http://orders:8080
  timeout: 5s
reconciler:
  fanout_timeout: 2s
items:
  price: "10.0"
  description: Candy
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("CONSOLE_CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "http://orders:8080", cfg.OrdersService.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.OrdersService.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Reconciler.FanoutTimeout)
	assert.Equal(t, "Candy", cfg.Items.Description)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Backend = "grpc" }},
		{"missing url", func(c *Config) { c.OrdersService.BaseURL = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad price", func(c *Config) { c.Items.Price = "cheap" }},
		{"zero fan-out limit", func(c *Config) { c.Reconciler.FanoutLimit = 0 }},
		{"events without brokers", func(c *Config) {
			c.Features.EnableActionEvents = true
			c.Kafka.Brokers = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	demo := Default()
	demo.Backend = BackendDemo
	demo.OrdersService.BaseURL = ""
	assert.NoError(t, demo.Validate())
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "15")
	assert.Equal(t, 15*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
}
