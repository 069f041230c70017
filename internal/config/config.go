package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Simulation store backends.
const (
	SimStoreMemory = "memory"
	SimStoreRedis  = "redis"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port      int    `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// SMSA
	SMSAPassKey string `envconfig:"SMSA_PASS_KEY"`
	SMSABaseURL string `envconfig:"SMSA_BASE_URL" default:"https://track.smsaexpress.com/SECOM/SMSAwebService.asmx"`
	SMSAEnabled bool   `envconfig:"SMSA_ENABLED" default:"true"`
	SMSAUseMock bool   `envconfig:"SMSA_USE_MOCK" default:"false"`

	// ARAMEX
	AramexAPIKey  string `envconfig:"ARAMEX_API_KEY"`
	AramexBaseURL string `envconfig:"ARAMEX_BASE_URL" default:"https://api.aramex.com/v2"`
	AramexEnabled bool   `envconfig:"ARAMEX_ENABLED" default:"true"`
	AramexUseMock bool   `envconfig:"ARAMEX_USE_MOCK" default:"false"`

	// Simulation courier
	MockEnabled   bool   `envconfig:"MOCK_ENABLED" default:"true"`
	SimStore      string `envconfig:"SIM_STORE" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.observability.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"courierhub"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.SimStore != SimStoreMemory && cfg.SimStore != SimStoreRedis {
		return nil, fmt.Errorf("unknown SIM_STORE %q, expected %q or %q", cfg.SimStore, SimStoreMemory, SimStoreRedis)
	}

	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("smsa.enabled", c.SMSAEnabled),
		attribute.Bool("aramex.enabled", c.AramexEnabled),
		attribute.Bool("mock.enabled", c.MockEnabled),
	}
}
