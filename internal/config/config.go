package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/quake-feed-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed request configuration.
	Endpoint          string
	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	ConnectivityCheck bool

	// Filter settings used when a caller supplies none.
	DefaultFilter domain.FilterSettings

	// Optional Kafka sink for presented records.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	connectTimeout, err := parsePositiveDuration("CONNECT_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	readTimeout, err := parsePositiveDuration("READ_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	defaults := domain.DefaultFilterSettings()
	filter := domain.FilterSettings{
		MinMagnitude: sharedcfg.EnvOrDefault("MIN_MAGNITUDE", defaults.MinMagnitude),
		OrderBy:      sharedcfg.EnvOrDefault("ORDER_BY", defaults.OrderBy),
		ResultLimit:  sharedcfg.EnvOrDefault("RESULT_LIMIT", defaults.ResultLimit),
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("default filter: %w", err)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Endpoint:          sharedcfg.EnvOrDefault("USGS_ENDPOINT", domain.DefaultEndpoint),
		ConnectTimeout:    connectTimeout,
		ReadTimeout:       readTimeout,
		ConnectivityCheck: os.Getenv("CONNECTIVITY_CHECK") != "false",

		DefaultFilter: filter,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "presented-earthquakes"),
	}

	if cfg.Endpoint == "" {
		return nil, errors.New("USGS_ENDPOINT is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
