package database

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/securebank/backend/internal/config"
	"github.com/sirupsen/logrus"
)

// InitRedis returns nil when Redis is unreachable; token revocation is then disabled.
func InitRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Redis connection failed, continuing without Redis")
		rdb.Close()
		return nil
	}

	logrus.WithField("addr", cfg.Addr()).Info("Redis connection established")
	return rdb
}

// BlacklistKey is the Redis key marking a revoked bearer token.
func BlacklistKey(token string) string {
	return "blacklist:" + token
}
