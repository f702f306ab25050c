package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jubmeng/rainbow/pkg/errors"
)

const keyPrefix = "pwreset:"

// ResetTokenStore implements repository.ResetTokenStore using Redis. Only
// the SHA-256 of a token is stored, so a leaked keyspace cannot be replayed.
type ResetTokenStore struct {
	client *redis.Client
}

// NewResetTokenStore creates a new Redis-backed reset token store.
func NewResetTokenStore(client *redis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Save stores the user id under the hashed token with the given TTL.
func (s *ResetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes a token. Unknown, expired and
// already used tokens are all reported as unauthorized.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.Unauthorized("reset token is invalid or has expired")
		}
		return "", fmt.Errorf("redis getdel reset token: %w", err)
	}
	return userID, nil
}
