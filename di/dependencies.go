package di

import (
	"database/sql"

	"github.com/redis/go-redis/v9"

	"reportfire/internal/lock"
	"reportfire/internal/store"
	"reportfire/internal/store/memory"
	"reportfire/internal/store/postgres"
	redisstore "reportfire/internal/store/redis"
	"reportfire/types/config"
)

func createRecordStore(driver config.StorageDriver, db *sql.DB, redisClient *redis.Client) store.JobRecordStore {
	switch driver {
	case config.Postgres:
		return postgres.NewRecordStore(db)
	case config.Redis:
		return redisstore.NewRecordStore(redisClient)
	case config.Memory:
		return memory.NewRecordStore()
	default:
		panic("unsupported storage driver")
	}
}

func createMonitoringStore(driver config.StorageDriver, db *sql.DB, redisClient *redis.Client) store.MonitoringStore {
	switch driver {
	case config.Postgres:
		return postgres.NewMonitoringStore(db)
	case config.Redis:
		return redisstore.NewMonitoringStore(redisClient)
	case config.Memory:
		return memory.NewMonitoringStore()
	default:
		panic("unsupported storage driver")
	}
}

func createUserStore(driver config.StorageDriver, db *sql.DB) store.UserStore {
	switch driver {
	case config.Postgres:
		return postgres.NewUserStore(db)
	default:
		return nil
	}
}

func createLockManager(driver config.StorageDriver, db *sql.DB) lock.KeyedLockManager {
	switch driver {
	case config.Postgres:
		return lock.NewPostgresLockManager(db)
	case config.Redis, config.Memory:
		return lock.NewInProcessLockManager()
	default:
		panic("unsupported storage driver")
	}
}
