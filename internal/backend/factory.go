package backend

import (
	"context"
	"fmt"

	applog "gofinances/internal/log"
	"gofinances/internal/storage"
	"gofinances/internal/storage/memory"
	"gofinances/internal/storage/postgres"
	"gofinances/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Default(applog.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (storage.KeyValueStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryStore(config)
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case PostgresBackend:
		return f.createPostgresStore(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryStore(config Config) (storage.KeyValueStore, error) {
	if config.MemorySeedFile == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	}

	key := config.StorageKey
	if key == "" {
		key = storage.DefaultTransactionsKey
	}
	store, err := memory.NewFromFile(config.MemorySeedFile, key)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile, applog.FieldStorageKey, key)
	return store, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (storage.KeyValueStore, error) {
	store, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return store, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (storage.KeyValueStore, error) {
	store, err := postgres.New(ctx, config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}
	f.logger.Info("Initialized Postgres backend")
	return store, nil
}
