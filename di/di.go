package di

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"reportfire/internal/lock"
	"reportfire/internal/notify"
	"reportfire/internal/store"
	"reportfire/types/config"
)

// Dependencies bundles the shared collaborators the engine wires its families
// with. Stores and the lock manager are driver-specific; the notifier depends
// only on whether RabbitMQ is configured.
type Dependencies struct {
	SqlDB       *sql.DB
	RedisClient *redis.Client

	Records  store.JobRecordStore
	Monitor  store.MonitoringStore
	Users    store.UserStore
	LockMgr  lock.KeyedLockManager
	Notifier notify.Sender
}

func GetDependencies(cfg *config.EngineConfig) (*Dependencies, error) {
	sqlDB, redisClient, err := getStorageConnections(cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := createNotifier(cfg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		SqlDB:       sqlDB,
		RedisClient: redisClient,
		Records:     createRecordStore(cfg.StorageDriver, sqlDB, redisClient),
		Monitor:     createMonitoringStore(cfg.StorageDriver, sqlDB, redisClient),
		Users:       createUserStore(cfg.StorageDriver, sqlDB),
		LockMgr:     createLockManager(cfg.StorageDriver, sqlDB),
		Notifier:    notifier,
	}, nil
}

// getStorageConnections sets up storage backends (Postgres, Redis or memory)
// based on the configuration.
func getStorageConnections(cfg *config.EngineConfig) (*sql.DB, *redis.Client, error) {
	var sqlDB *sql.DB
	var redisClient *redis.Client

	switch cfg.StorageDriver {
	case config.Postgres:
		sqlDB = getPG(cfg.PostgresConfig.ConnectionUrl)
	case config.Redis:
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
	case config.Memory:
		// Everything stays in process.
	default:
		return nil, nil, fmt.Errorf("unsupported driver: %v", cfg.StorageDriver)
	}
	return sqlDB, redisClient, nil
}

func createNotifier(cfg *config.EngineConfig) (notify.Sender, error) {
	if cfg.RabbitMQConfig == nil {
		return notify.NoopSender{}, nil
	}

	mq := cfg.RabbitMQConfig
	sender, err := notify.NewRabbitMQSender(mq.URL, mq.Exchange, mq.Queue, mq.RoutingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	return sender, nil
}
