// Package bootstrap wires shared runtime dependencies (Postgres,
// Redis) from configuration. Builders degrade to nil when a backing
// service is not configured so callers can decide what is optional.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/byoncocare/oncobot/internal/config"
	"github.com/byoncocare/oncobot/pkg/logging"
)

// BuildPgxPool connects the pgx pool used by the ledger, opt-out
// registry, and conversation state store.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*pgxpool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info("postgres pool ready")
	return pool, nil
}

// BuildSQLDB opens the database/sql handle used by the transcript
// store. Returns nil when transcripts are not configured.
func BuildSQLDB(cfg *appconfig.Config, logger *logging.Logger) *sql.DB {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Warn("transcript db unavailable", "error", err)
		return nil
	}
	return db
}

// BuildRedisClient connects Redis for quota counters. Returns nil when
// Redis is not configured or unreachable, which disables quotas.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}
