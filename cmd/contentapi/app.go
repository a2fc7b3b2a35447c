package main

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"content_metrics/internal/config"
	"content_metrics/internal/publisher"
	"content_metrics/internal/service"
	"content_metrics/internal/source/feed"
	"content_metrics/internal/storage/postgres"
)

// app holds the services shared by the commands.
type app struct {
	db        *sqlx.DB
	publisher *publisher.RabbitMQ
	ingest    *service.IngestService
	contents  *service.ContentService
	syncState *postgres.SyncStateStore
	batchSize int
	logger    *slog.Logger
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := openDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	version, err := postgres.ApplySchema(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("schema ready", "version", version)

	a := &app{db: db, batchSize: cfg.Ingest.MaxBatchSize, logger: logger}

	// Left as a nil interface when disabled so the ingester skips publishing.
	var events service.Publisher
	if cfg.RabbitMQ.Enabled {
		a.publisher, err = publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		events = a.publisher
	}

	contentStore := postgres.NewContentStore(db)
	txManager := postgres.NewTransactionManager(db, cfg.Ingest.MaxAttempts, cfg.Ingest.InitialBackoff)

	a.ingest = service.NewIngestService(
		postgres.NewAuthorStore(db),
		contentStore,
		postgres.NewTagStore(db),
		txManager,
		events,
		logger,
		cfg.Ingest,
	)
	a.contents = service.NewContentService(contentStore, logger, cfg.Query)
	a.syncState = postgres.NewSyncStateStore(db)

	return a, nil
}

func (a *app) newPullService(cfg config.FeedConfig) *service.PullService {
	src := feed.New(feed.Config{
		SourceID:       cfg.SourceID,
		URL:            cfg.URL,
		Timeout:        cfg.Timeout,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		MaxBackoff:     cfg.Retry.MaxBackoff,
	}, a.logger)

	return service.NewPullService(src, a.ingest, a.syncState, a.batchSize, a.logger)
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

func openDB(cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	logger.Info("connected to database",
		"host", cfg.Host,
		"dbname", cfg.DBName,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return db, nil
}
