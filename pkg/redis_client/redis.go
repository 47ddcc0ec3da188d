package redis_client

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/config"
)

var Client *redis.Client

// Connect opens the shared client. An empty address leaves Client nil.
func Connect(ctx context.Context, cfg config.RedisConfig) error {
	if cfg.Address == "" {
		log.Info().Msg("Skipping Redis setup")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return err
	}

	Client = client

	return nil
}

func Close() error {
	if Client == nil {
		return nil
	}

	return Client.Close()
}
