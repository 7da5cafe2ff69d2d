package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/infrastructure/config"
)

// NewIdempotencyStore creates an idempotency store from configuration.
// Redis is tried first; when it is unreachable the store falls back to
// the in-memory implementation, which is fine for a single instance
// but does not share state across processes.
func NewIdempotencyStore(cfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err == nil {
		logger.Info("using Redis idempotency store",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port))
		return store, nil
	}

	logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}

// NewRedisIdempotencyStoreStrict creates a Redis store and fails when
// Redis is unreachable, for deployments where shared state is required
func NewRedisIdempotencyStoreStrict(cfg config.RedisConfig) (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis idempotency store: %w", err)
	}
	return store, nil
}
