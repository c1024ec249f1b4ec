// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"

	EventBackendKafka    = "kafka"
	EventBackendRedis    = "redis"
	EventBackendPostgres = "postgres"
	EventBackendMemory   = "memory"
)

type Config struct {
	Service        string
	HTTPAddr       string
	StoreBackend   string
	PostgresURL    string
	RequestTimeout time.Duration
	LogLevel       string
	Events         EventsConfig
}

type EventsConfig struct {
	Backend        string
	KafkaBrokers   []string
	RedisAddr      string
	ConsumerGroup  string
	HandlerTimeout time.Duration
}

var defaultHTTPAddrs = map[string]string{
	"user-service":  ":8081",
	"order-service": ":8080",
}

// Load reads the configuration of the named service. Environment variables
// win over built-in defaults.
func Load(service string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	httpAddr, ok := defaultHTTPAddrs[service]
	if !ok {
		httpAddr = ":8080"
	}

	v.SetDefault("http_addr", httpAddr)
	v.SetDefault("store_backend", StoreBackendPostgres)
	v.SetDefault("postgres_url", "")
	v.SetDefault("event_backend", EventBackendKafka)
	v.SetDefault("kafka_addr", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("consumer_group", service)
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("handler_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")

	cfg := &Config{
		Service:        service,
		HTTPAddr:       v.GetString("http_addr"),
		StoreBackend:   strings.ToLower(v.GetString("store_backend")),
		PostgresURL:    v.GetString("postgres_url"),
		RequestTimeout: v.GetDuration("request_timeout"),
		LogLevel:       v.GetString("log_level"),
		Events: EventsConfig{
			Backend:        strings.ToLower(v.GetString("event_backend")),
			KafkaBrokers:   splitList(v.GetString("kafka_addr")),
			RedisAddr:      v.GetString("redis_addr"),
			ConsumerGroup:  v.GetString("consumer_group"),
			HandlerTimeout: v.GetDuration("handler_timeout"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", service, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.Events.Backend {
	case EventBackendKafka:
		if len(c.Events.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_ADDR is required for the kafka event backend"))
		}
	case EventBackendRedis:
		if c.Events.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis event backend"))
		}
	case EventBackendPostgres, EventBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_BACKEND %q", c.Events.Backend))
	}

	if c.NeedsPostgres() && c.PostgresURL == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}

	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.Events.HandlerTimeout <= 0 {
		errs = append(errs, errors.New("HANDLER_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// NeedsPostgres reports whether either the store or the event channel runs on Postgres.
func (c *Config) NeedsPostgres() bool {
	return c.StoreBackend == StoreBackendPostgres || c.Events.Backend == EventBackendPostgres
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
