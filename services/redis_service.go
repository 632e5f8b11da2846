package services

import (
	"context"
	"encoding/json"
	"sos-http-service/config"
	"time"

	"github.com/go-redis/redis/v8"
)

// activeSOSVersionKey is bumped on every write so cached query results expire logically
const activeSOSVersionKey = "active_sos:version"

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// ActiveSOSVersion returns the current cache version for active SOS queries
func (s *RedisService) ActiveSOSVersion() (int64, error) {
	val, err := s.Client.Get(s.Ctx, activeSOSVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// BumpActiveSOSVersion invalidates all cached active SOS queries
func (s *RedisService) BumpActiveSOSVersion() error {
	return s.Client.Incr(s.Ctx, activeSOSVersionKey).Err()
}

// Ping checks the Redis connection
func (s *RedisService) Ping() error {
	ctx, cancel := context.WithTimeout(s.Ctx, 5*time.Second)
	defer cancel()
	return s.Client.Ping(ctx).Err()
}
