package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ledger/internal/amqp"
	"ledger/internal/config"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
	"ledger/internal/storage/postgres"
	"ledger/internal/storage/sqlite"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the configured store and, when an AMQP URL is set,
// a publisher. A broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Store: store, Cleanup: store.Close}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			result.Publisher = client
			result.Cleanup = func() error {
				return errors.Join(client.Close(), store.Close())
			}
		}
	}
	return result, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		if config.SQLiteDBPath == "" {
			return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		store, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return store, nil

	case PostgresBackend:
		if config.PostgresURL == "" {
			return nil, fmt.Errorf("Postgres URL is required for postgres backend")
		}
		store, err := postgres.Open(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return store, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
}
