package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/storesync/typesync/pkg/config"
)

// Config holds all configuration for the sync service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server (health, metrics)
	HTTPPort int `env:"TYPESYNC_HTTP_PORT" envDefault:"8020"`

	// Store identity; part of every alias and collection name.
	StoreID string `env:"STORE_ID,required"`

	// Typesense
	TypesenseURL    string `env:"TYPESENSE_URL" envDefault:"http://localhost:8108"`
	TypesenseAPIKey string `env:"TYPESENSE_API_KEY"`

	// Index engine selection (typesense or memory)
	IndexEngine string `env:"INDEX_ENGINE" envDefault:"typesense"`

	// Commerce platform API serving catalog data
	CatalogAPIURL string `env:"CATALOG_API_URL,required"`
	CatalogAPIKey string `env:"CATALOG_API_KEY"`

	// Currencies the product schema declares price fields for
	BaseCurrency    string   `env:"BASE_CURRENCY" envDefault:"USD"`
	ExtraCurrencies []string `env:"EXTRA_CURRENCIES" envSeparator:","`

	// Sync tuning
	BatchSize   int           `env:"BATCH_SIZE" envDefault:"100"`
	SyncLockTTL time.Duration `env:"SYNC_LOCK_TTL" envDefault:"30m"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"typesync"`

	// Redis (sync locks, event idempotency)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load typesync config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.IndexEngine != "typesense" && c.IndexEngine != "memory" {
		return fmt.Errorf("invalid index engine: %q", c.IndexEngine)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch size: %d", c.BatchSize)
	}
	if c.SyncLockTTL <= 0 {
		return fmt.Errorf("invalid sync lock TTL: %s", c.SyncLockTTL)
	}
	if c.TraceSampleRate < 0 || c.TraceSampleRate > 1 {
		return fmt.Errorf("invalid trace sample rate: %f", c.TraceSampleRate)
	}
	return nil
}

// Currencies returns the base currency followed by any extra currencies.
func (c *Config) Currencies() []string {
	out := make([]string, 0, 1+len(c.ExtraCurrencies))
	out = append(out, c.BaseCurrency)
	for _, cur := range c.ExtraCurrencies {
		if cur != "" && cur != c.BaseCurrency {
			out = append(out, cur)
		}
	}
	return out
}
