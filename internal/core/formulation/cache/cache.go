package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// Service is the redis-backed formulation result cache. Entries are keyed
// by a hash of the normalized request and expire after the configured TTL.
type Service struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewService creates the cache service. A disabled cache yields a service
// whose Get always misses and whose Set is a no-op.
func NewService(cfg *config.CacheConfig) (*Service, error) {
	if !cfg.Enabled {
		common.LogInfo("result cache disabled")
		return &Service{config: cfg}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Service{
		client: client,
		config: cfg,
	}, nil
}

// Key derives the cache key for a normalized request payload.
func Key(payload string) string {
	hash := sha256.Sum256([]byte(payload))
	return fmt.Sprintf("formulation:result:%s", hex.EncodeToString(hash[:]))
}

// Get fetches a cached result payload.
func (s *Service) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.config.Enabled || s.client == nil {
		return nil, common.ErrCacheDisabled
	}

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			common.LogCacheMiss("formulation", key)
			return nil, fmt.Errorf("cache miss")
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	common.LogCacheHit("formulation", key)
	return data, nil
}

// Set stores a result payload.
func (s *Service) Set(ctx context.Context, key string, data []byte) error {
	if !s.config.Enabled || s.client == nil {
		return nil
	}

	if err := s.client.Set(ctx, key, data, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

// Close releases the redis connection.
func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
