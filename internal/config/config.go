package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Backend modes.
const (
	BackendHTTP = "http"
	BackendDemo = "demo"
)

type Config struct {
	Server        ServerConfig     `yaml:"server"`
	OrdersService ServiceConfig    `yaml:"orders_service"`
	Reconciler    ReconcilerConfig `yaml:"reconciler"`
	Items         ItemsConfig      `yaml:"items"`
	Kafka         KafkaConfig      `yaml:"kafka"`
	Features      FeaturesConfig   `yaml:"features"`
	CORS          CORSConfig       `yaml:"cors"`
	Backend       string           `yaml:"backend"`
	LogLevel      string           `yaml:"log_level"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ReconcilerConfig struct {
	FanoutTimeout time.Duration `yaml:"fanout_timeout"`
	FanoutLimit   int           `yaml:"fanout_limit"`
}

// ItemsConfig holds the placeholders sent for line item fields the creation
// form does not collect.
type ItemsConfig struct {
	OrderID       int64  `yaml:"order_id"`
	Price         string `yaml:"price"`
	Description   string `yaml:"description"`
	MaxCustomerID int64  `yaml:"max_customer_id"`
}

// PlaceholderPrice parses the configured item price.
func (i ItemsConfig) PlaceholderPrice() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(i.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid item placeholder price %q: %w", i.Price, err)
	}
	return price, nil
}

type KafkaConfig struct {
	Brokers      []string `yaml:"brokers"`
	ActionsTopic string   `yaml:"actions_topic"`
}

type FeaturesConfig struct {
	EnableActionEvents bool `yaml:"enable_action_events"`
	EnableMetrics      bool `yaml:"enable_metrics"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load builds the configuration from defaults, then the optional YAML file named
// by CONSOLE_CONFIG_FILE, then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONSOLE_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		OrdersService: ServiceConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Reconciler: ReconcilerConfig{
			FanoutTimeout: 10 * time.Second,
			FanoutLimit:   8,
		},
		Items: ItemsConfig{
			OrderID:       0,
			Price:         "23.4",
			Description:   "Glucose",
			MaxCustomerID: 10000,
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			ActionsTopic: "orders-console.actions",
		},
		Features: FeaturesConfig{
			EnableActionEvents: false,
			EnableMetrics:      true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Backend:  BackendHTTP,
		LogLevel: "info",
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.OrdersService.BaseURL = getEnvString("ORDERS_SERVICE_URL", c.OrdersService.BaseURL)
	c.OrdersService.Timeout = getEnvDuration("ORDERS_SERVICE_TIMEOUT", c.OrdersService.Timeout)

	c.Reconciler.FanoutTimeout = getEnvDuration("FANOUT_TIMEOUT", c.Reconciler.FanoutTimeout)
	c.Reconciler.FanoutLimit = getEnvInt("FANOUT_LIMIT", c.Reconciler.FanoutLimit)

	c.Items.Price = getEnvString("ITEM_PLACEHOLDER_PRICE", c.Items.Price)
	c.Items.Description = getEnvString("ITEM_PLACEHOLDER_DESCRIPTION", c.Items.Description)
	c.Items.MaxCustomerID = int64(getEnvInt("MAX_CUSTOMER_ID", int(c.Items.MaxCustomerID)))

	c.Kafka.Brokers = getEnvSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Kafka.ActionsTopic = getEnvString("KAFKA_ACTIONS_TOPIC", c.Kafka.ActionsTopic)

	c.Features.EnableActionEvents = getEnvBool("ENABLE_ACTION_EVENTS", c.Features.EnableActionEvents)
	c.Features.EnableMetrics = getEnvBool("ENABLE_METRICS", c.Features.EnableMetrics)

	c.CORS.AllowedOrigins = getEnvSlice("CORS_ALLOWED_ORIGINS", c.CORS.AllowedOrigins)

	c.Backend = getEnvString("CONSOLE_BACKEND", c.Backend)
	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
}

// Validate checks the configuration for values the console cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}

	switch c.Backend {
	case BackendHTTP:
		if c.OrdersService.BaseURL == "" {
			return fmt.Errorf("ORDERS_SERVICE_URL is required")
		}
	case BackendDemo:
	default:
		return fmt.Errorf("invalid backend %q (must be %s or %s)", c.Backend, BackendHTTP, BackendDemo)
	}

	if c.Reconciler.FanoutLimit <= 0 {
		return fmt.Errorf("fan-out limit must be positive")
	}

	if _, err := c.Items.PlaceholderPrice(); err != nil {
		return err
	}

	if c.Items.MaxCustomerID <= 0 {
		return fmt.Errorf("max customer id must be positive")
	}

	if c.Features.EnableActionEvents && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("action events enabled but no kafka brokers configured")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
