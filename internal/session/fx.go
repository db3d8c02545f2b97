package session

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/cuadra/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("session",
	fx.Provide(
		NewRedisClient,
		provideStore,
		NewManager,
		NewCookie,
	),
)

// NewRedisClient returns nil when REDIS_ADDR is empty.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func provideStore(client *redis.Client, log *zap.Logger) Store {
	if client == nil {
		log.Info("session store: memory")
		return NewMemoryStore()
	}
	log.Info("session store: redis")
	return NewRedisStore(client)
}
