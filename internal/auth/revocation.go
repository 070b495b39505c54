package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mmynk/splitledger/internal/storage"
)

// RevocationList records refresh tokens that must no longer be accepted.
type RevocationList interface {
	// Revoke blacklists the token id until expiresAt.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// StoreRevocationList keeps the blacklist in the relational store.
type StoreRevocationList struct {
	store storage.TokenStore
}

// NewStoreRevocationList creates a blacklist backed by the given store.
func NewStoreRevocationList(store storage.TokenStore) *StoreRevocationList {
	return &StoreRevocationList{store: store}
}

func (l *StoreRevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return l.store.RevokeToken(ctx, tokenID, expiresAt)
}

func (l *StoreRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return l.store.IsTokenRevoked(ctx, tokenID)
}

// RedisRevocationList keeps the blacklist in Redis; entries expire with their tokens.
type RedisRevocationList struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRevocationList creates a blacklist on the given client.
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{
		client: client,
		prefix: "splitledger:revoked:",
		now:    time.Now,
	}
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		// Already expired; validation rejects it regardless.
		return nil
	}
	if err := l.client.SetNX(ctx, l.prefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return n > 0, nil
}
