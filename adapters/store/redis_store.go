package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "tute:"

// RedisStore is a Redis implementation of the store ports
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var (
	_ ports.Store             = (*RedisStore)(nil)
	_ ports.NonceStore        = (*RedisStore)(nil)
	_ ports.VerificationStore = (*RedisStore)(nil)
)

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: defaultPrefix,
	}
}

func (s *RedisStore) invalidatedKey(tokenID string) string { return s.prefix + "invalidated:" + tokenID }
func (s *RedisStore) nonceKey(nonce string) string         { return s.prefix + "nonce:" + nonce }
func (s *RedisStore) verifiedKey(address string) string {
	return s.prefix + "verified:" + strings.ToLower(address)
}
func (s *RedisStore) nullifierKey(action, nullifier string) string {
	return s.prefix + "nullifier:" + action + ":" + nullifier
}

// InvalidateToken marks a token as invalidated in Redis
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	// Set key with expiration
	if err := s.client.Set(ctx, s.invalidatedKey(tokenID), "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Exists(ctx, s.invalidatedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}

	return val > 0, nil
}

// SaveNonce stores an issued nonce with a TTL
func (s *RedisStore) SaveNonce(ctx context.Context, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.nonceKey(nonce), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to save nonce: %w", err)
	}
	return nil
}

// ConsumeNonce atomically reads and deletes a nonce
func (s *RedisStore) ConsumeNonce(ctx context.Context, nonce string) error {
	err := s.client.GetDel(ctx, s.nonceKey(nonce)).Err()
	if errors.Is(err, redis.Nil) {
		return core.ErrNonceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to consume nonce: %w", err)
	}
	return nil
}

// SaveVerification records a verified address. The nullifier is claimed with
// SETNX so that one person cannot verify several addresses for an action.
func (s *RedisStore) SaveVerification(ctx context.Context, v *core.Verification) error {
	address := strings.ToLower(v.Address)

	claimed, err := s.client.SetNX(ctx, s.nullifierKey(v.Action, v.NullifierHash), address, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim nullifier: %w", err)
	}
	if !claimed {
		owner, err := s.client.Get(ctx, s.nullifierKey(v.Action, v.NullifierHash)).Result()
		if err != nil {
			return fmt.Errorf("failed to read nullifier owner: %w", err)
		}
		if owner != address {
			return core.ErrAlreadyVerified
		}
	}

	stored := *v
	stored.Address = address
	payload, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to marshal verification: %w", err)
	}

	if err := s.client.Set(ctx, s.verifiedKey(address), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save verification: %w", err)
	}
	return nil
}

// GetVerification returns the verification of an address, or nil
func (s *RedisStore) GetVerification(ctx context.Context, address string) (*core.Verification, error) {
	payload, err := s.client.Get(ctx, s.verifiedKey(address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read verification: %w", err)
	}

	var v core.Verification
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification: %w", err)
	}
	return &v, nil
}
