package redis

import (
	"context"
	"time"

	"github.com/moonbeamcafe/barista/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Service wraps the Redis client used by the session and order stores.
// It is optional: NewService returns nil when Redis is not configured or
// unreachable, and callers fall back to in-memory stores.
type Service struct {
	client *redis.Client
}

func NewService() *Service {
	url := config.GetRedisURL()
	if url == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: config.GetRedisPassword(),
		DB:       0,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error().
			Err(err).
			Str("addr", url).
			Msg("Failed to establish Redis connection")
		return nil
	}

	log.Info().Str("addr", url).Msg("Connected to Redis")
	return &Service{client: client}
}

// Set stores a value with an optional expiration.
func (s *Service) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.client.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis SET failed")
		return err
	}
	return nil
}

// Get retrieves a value. A missing key returns redis.Nil as the error.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		log.Error().
			Err(err).
			Str("key", key).
			Msg("Redis GET failed")
	}
	return val, err
}

// Delete removes a key.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Ping checks if Redis is accessible.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Service) Close() error {
	return s.client.Close()
}

// IsNotFound reports whether err marks a missing key.
func IsNotFound(err error) bool {
	return err == redis.Nil
}
