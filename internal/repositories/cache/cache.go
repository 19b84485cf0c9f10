// Package cache provides a Redis-backed read cache for wallet lookups.
// Balances mutate through the ledger, so every mutation invalidates the
// cached wallet; the cache only ever serves reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campusledger/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the cache.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NewRedisClient builds a go-redis client from config.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Service wraps the Redis client with wallet-oriented helpers.
type Service struct {
	client *redis.Client
	ttl    time.Duration
}

func NewService(client *redis.Client, defaultTTL time.Duration) *Service {
	return &Service{client: client, ttl: defaultTTL}
}

func walletKey(walletID uuid.UUID) string {
	return fmt.Sprintf("wallet:%s", walletID)
}

// GetWallet returns the cached wallet, or (nil, false) on a miss.
func (s *Service) GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, bool) {
	data, err := s.client.Get(ctx, walletKey(walletID)).Bytes()
	if err != nil {
		return nil, false
	}
	var wallet models.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, false
	}
	return &wallet, true
}

func (s *Service) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	return s.client.Set(ctx, walletKey(wallet.WalletID), data, s.ttl).Err()
}

func (s *Service) InvalidateWallet(ctx context.Context, walletID uuid.UUID) error {
	return s.client.Del(ctx, walletKey(walletID)).Err()
}

// HealthCheck pings Redis.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	return s.client.Close()
}
