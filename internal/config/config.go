package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the service, bound from environment
// variables via struct tags.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	KafkaBootstrap string `env:"KAFKA_BOOTSTRAP,required"`
	KafkaTopic     string `env:"KAFKA_TOPIC" envDefault:"student_system_order.events"`

	CatalogServiceAPIURL       string `env:"CATALOG_SERVICE_API_URL,required"`
	PaymentsServiceAPIURL      string `env:"PAYMENTS_SERVICE_API_URL,required"`
	PaymentsCallbackURL        string `env:"PAYMENTS_CALLBACK_URL,required"`
	NotificationsServiceAPIURL string `env:"NOTIFICATIONS_SERVICE_API_URL,required"`
	ServiceAccessToken         string `env:"CAPASHINO_SERVICE_ACCESS_TOKEN,required"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AppPort int `env:"APP_PORT" envDefault:"8080"`
}

// Load reads configuration from the environment, applying defaults and
// failing fast when a required variable is missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment config: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

// KafkaBrokers splits KAFKA_BOOTSTRAP into a broker list; multi-broker
// deployments pass a comma-separated value.
func (c *Config) KafkaBrokers() []string {
	parts := strings.Split(c.KafkaBootstrap, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
