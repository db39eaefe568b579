package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"autoclaim/internal/shared/config"
	"autoclaim/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB bundles the Postgres store for bookings, trains and claims with the
// Redis instance used for caching, rate limits and reminder dedupe.
type DB struct {
	PostgreSQL *gorm.DB
	Redis      *redis.Client
}

// InitDB connects both stores and brings the schema up to date.
func InitDB(cfg *config.Config) (*DB, error) {
	log := logger.GetDefault()

	pg, err := connectPostgres(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(pg); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	rdb, err := connectRedis(cfg, log)
	if err != nil {
		return nil, err
	}

	return &DB{PostgreSQL: pg, Redis: rdb}, nil
}

func gormLogger(cfg *config.Config, log *logger.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}
	return gormlogger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), gormlogger.Config{
		SlowThreshold:             cfg.Database.SlowQuery,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func connectPostgres(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:                                   gormLogger(cfg, log),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	attempts := cfg.Database.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := openPostgres(cfg.Database, gormConfig)
		if err == nil {
			log.Info("PostgreSQL connected", slog.String("host", cfg.Database.Host), slog.Int("attempt", attempt))
			return db, nil
		}
		lastErr = err
		if attempt < attempts {
			log.Warn("PostgreSQL not ready, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.Any("error", err),
			)
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", attempts, lastErr)
}

func openPostgres(dbCfg config.DatabaseConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dbCfg.DSN), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func connectRedis(cfg *config.Config, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}

	log.Info("Redis connected", slog.String("addr", cfg.Redis.Addr))
	return rdb, nil
}

// Close closes both stores and reports every failure.
func (db *DB) Close() error {
	var errs []error
	if db.PostgreSQL != nil {
		if sqlDB, err := db.PostgreSQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
			}
		}
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if len(errs) == 0 {
		logger.GetDefault().Info("Database connections closed")
	}
	return errors.Join(errs...)
}

// ComponentHealth is one store's entry in the /health payload.
type ComponentHealth struct {
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health pings each configured store.
func (db *DB) Health(ctx context.Context) map[string]ComponentHealth {
	report := make(map[string]ComponentHealth, 2)
	if db.PostgreSQL != nil {
		report["postgres"] = probe(func() error {
			sqlDB, err := db.PostgreSQL.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}
	if db.Redis != nil {
		report["redis"] = probe(func() error {
			return db.Redis.Ping(ctx).Err()
		})
	}
	return report
}

func probe(ping func() error) ComponentHealth {
	start := time.Now()
	err := ping()
	h := ComponentHealth{Healthy: err == nil, LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		h.Error = err.Error()
	}
	return h
}

func (db *DB) GetRedisClient() *redis.Client {
	return db.Redis
}

func (db *DB) GetPostgreSQL() *gorm.DB {
	return db.PostgreSQL
}
