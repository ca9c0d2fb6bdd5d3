package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/db"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Options struct {
	Driver string `koanf:"driver"`

	SQLitePath string `koanf:"sqlite_path"`

	PostgresDSN   string `koanf:"postgres_dsn"`
	RunMigrations bool   `koanf:"run_migrations"`

	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisTTL      time.Duration `koanf:"redis_ttl"`
}

// Open connects the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (KV, error) {
	logger = logger.With(zap.String("driver", opts.Driver))

	switch opts.Driver {
	case DriverMemory:
		logger.Warn("using in-memory storage, cart state will not survive restarts")
		return NewMemory(), nil

	case DriverSQLite:
		s, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", zap.String("path", opts.SQLitePath))
		return s, nil

	case DriverPostgres:
		if opts.RunMigrations {
			if err := db.RunMigrations(opts.PostgresDSN, logger); err != nil {
				return nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		logger.Info("storage ready")
		return NewPostgres(pool, pool.Close), nil

	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("storage ready", zap.String("addr", opts.RedisAddr))
		return NewRedis(rdb, opts.RedisTTL), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
