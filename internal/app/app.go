// Package app wires the service together: index client, catalog client,
// syncer, updater, Kafka consumers and the HTTP server. The CLI sync
// commands reuse the same Core wiring without the long-running pieces.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storesync/typesync/internal/alias"
	"github.com/storesync/typesync/internal/catalog"
	"github.com/storesync/typesync/internal/config"
	"github.com/storesync/typesync/internal/event"
	"github.com/storesync/typesync/internal/importer"
	"github.com/storesync/typesync/internal/index"
	memindex "github.com/storesync/typesync/internal/index/memory"
	tsindex "github.com/storesync/typesync/internal/index/typesense"
	"github.com/storesync/typesync/internal/mapper"
	"github.com/storesync/typesync/internal/schema"
	"github.com/storesync/typesync/internal/server"
	"github.com/storesync/typesync/internal/syncer"
	"github.com/storesync/typesync/internal/updater"
	"github.com/storesync/typesync/pkg/health"
	"github.com/storesync/typesync/pkg/httpclient"
	pkgkafka "github.com/storesync/typesync/pkg/kafka"
)

// Core holds the components shared by the server and the CLI sync commands.
type Core struct {
	Index   index.Client
	Catalog *catalog.Client
	Aliases *alias.Manager
	Syncer  *syncer.Syncer
	Updater *updater.Updater

	tsClient *tsindex.Client
	redis    *redis.Client
	producer *pkgkafka.Producer
}

// NewCore builds the sync engine and its dependencies from configuration.
func NewCore(cfg *config.Config, logger *slog.Logger) (*Core, error) {
	var (
		idx      index.Client
		tsClient *tsindex.Client
	)
	switch cfg.IndexEngine {
	case "typesense":
		tsClient = tsindex.New(tsindex.Config{
			URL:    cfg.TypesenseURL,
			APIKey: cfg.TypesenseAPIKey,
		})
		idx = tsClient
		logger.Info("typesense index client initialized", slog.String("url", cfg.TypesenseURL))
	default:
		idx = memindex.New()
		logger.Info("in-memory index client initialized")
	}

	httpClient := httpclient.New(httpclient.DefaultConfig())
	breaker := httpclient.NewBreakerClient(httpClient, httpclient.DefaultCircuitBreakerConfig("catalog-api"), logger)
	cat := catalog.NewClient(breaker, cfg.CatalogAPIURL, cfg.CatalogAPIKey, logger)

	aliases := alias.NewManager(idx, cfg.StoreID, logger)
	m := mapper.New(cfg.BaseCurrency)
	registry := schema.NewRegistry(cfg.Currencies()...)
	imp := importer.New(idx, cfg.BatchSize, logger)

	var (
		locker      syncer.Locker
		redisClient *redis.Client
	)
	if cfg.IndexEngine == "memory" {
		locker = syncer.NewMemoryLocker()
	} else {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		locker = syncer.NewRedisLocker(redisClient, cfg.SyncLockTTL)
	}

	// The memory engine is for local development without Kafka; there the
	// sync.completed announcements are skipped along with the broker.
	var (
		notifier syncer.Notifier
		producer *pkgkafka.Producer
	)
	if cfg.IndexEngine != "memory" {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		notifier = event.NewPublisher(producer, logger)
	}

	sync := syncer.New(syncer.Config{
		Catalog:  cat,
		Index:    idx,
		Aliases:  aliases,
		Importer: imp,
		Mapper:   m,
		Schemas:  registry,
		Locker:   locker,
		Notifier: notifier,
		PageSize: cfg.BatchSize,
		Logger:   logger,
	})

	upd := updater.New(cat, idx, aliases, m, logger)

	return &Core{
		Index:    idx,
		Catalog:  cat,
		Aliases:  aliases,
		Syncer:   sync,
		Updater:  upd,
		tsClient: tsClient,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// Close releases the Core's connections.
func (c *Core) Close() error {
	var errs []error
	if c.producer != nil {
		errs = append(errs, c.producer.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	return errors.Join(errs...)
}

// App wires together all dependencies and runs the sync service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	core       *Core
	consumers  []*pkgkafka.Consumer
	dlq        *pkgkafka.DLQProducer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	core, err := NewCore(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Event consumption with idempotent handling and a DLQ for poison
	// messages.
	eventConsumer := event.NewConsumer(core.Updater, logger)

	var idemStore pkgkafka.IdempotencyStore
	if core.redis != nil {
		idemStore = pkgkafka.NewRedisIdempotencyStore(core.redis, "typesync", 24*time.Hour)
	} else {
		idemStore = pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	}
	handler := pkgkafka.IdempotentHandler(idemStore, eventConsumer.Handle, logger)

	dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

	var consumers []*pkgkafka.Consumer
	for _, topic := range event.Topics() {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, handler, dlq, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(event.Topics())),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	if core.tsClient != nil {
		healthHandler.Register("typesense", core.tsClient.Ping)
	}
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})
	if core.redis != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return core.redis.Ping(ctx).Err()
		})
	}

	syncHandler := server.NewSyncHandler(core.Syncer, core.Index, core.Aliases, logger)
	router := server.NewRouter(syncHandler, healthHandler, logger)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Must exceed the sync route timeout so long rebuilds are not cut off.
		WriteTimeout: 31 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		core:       core,
		consumers:  consumers,
		dlq:        dlq,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context
// is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.dlq.Close(); err != nil {
		a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.core.Close(); err != nil {
		a.logger.Error("core close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
