package backend

import (
	"context"
	"fmt"
	"log/slog"

	"receipts/internal/amqp"
	blobfile "receipts/internal/blob/file"
	"receipts/internal/blob/memory"
	blobredis "receipts/internal/blob/redis"
	"receipts/internal/config"
	"receipts/internal/ledger"
	"receipts/internal/services"
	"receipts/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend()
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case RedisBackend:
		return f.createRedisBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Store: memory.New()}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	store, err := blobfile.New(config.DataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", "path", store.Path())

	return &BackendResult{Store: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   sqliteRepo,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createRedisBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := blobredis.New(ctx, blobredis.Options{
		Address:  config.RedisAddress,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
	}

	f.logger.Info("Initialized Redis backend", "address", config.RedisAddress, "db", config.RedisDB)

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

// NewPublisher returns the AMQP client for ledger events, or nil when AMQP
// is not configured or the broker is unreachable. The server keeps running
// without change events in both cases.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *amqp.Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AMQPURL == "" {
		logger.Info("AMQP not configured, ledger events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return nil
	}
	logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// Stack is a loaded receipt service together with the store it persists to.
type Stack struct {
	Service *services.ReceiptService
	Store   *ledger.Store
	Backend *BackendResult
}

// Open builds the blob store, the ledger and the receipt service described by
// cfg and loads the ledger. withEvents controls whether mutations are
// published over AMQP. Service.Close releases everything Open acquired.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, withEvents bool) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bcfg, err := FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := NewFactory(logger).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	store := ledger.NewStore(res.Store, ledger.Options{
		Key:    cfg.LedgerKey,
		Prefix: cfg.ReceiptPrefix,
		Logger: logger,
	})

	var publisher services.Publisher
	if withEvents {
		// Assign only a non-nil client so the interface stays nil otherwise.
		if client := NewPublisher(cfg, logger); client != nil {
			publisher = client
		}
	}

	svc := services.NewReceiptService(store, publisher, res)
	if err := svc.Load(ctx); err != nil {
		logger.Error("Failed to load ledger, starting empty", "error", err)
	}

	logger.Info("Ledger loaded",
		"backend", bcfg.Type,
		"receipts", store.Len())

	return &Stack{Service: svc, Store: store, Backend: res}, nil
}
