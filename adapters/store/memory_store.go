package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
)

// MemoryStore is an in-memory implementation of the store ports.
// Entries carry their own expiry and are dropped lazily on access.
type MemoryStore struct {
	invalidatedTokens map[string]time.Time
	nonces            map[string]time.Time
	verifications     map[string]*core.Verification
	nullifiers        map[string]string
	mu                sync.RWMutex

	now func() time.Time
}

var (
	_ ports.Store             = (*MemoryStore)(nil)
	_ ports.NonceStore        = (*MemoryStore)(nil)
	_ ports.VerificationStore = (*MemoryStore)(nil)
)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invalidatedTokens: make(map[string]time.Time),
		nonces:            make(map[string]time.Time),
		verifications:     make(map[string]*core.Verification),
		nullifiers:        make(map[string]string),
		now:               time.Now,
	}
}

// InvalidateToken marks a token as invalidated
func (s *MemoryStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidatedTokens[tokenID] = s.now().Add(expiry)
	return nil
}

// IsTokenInvalidated checks if a token is invalidated
func (s *MemoryStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.invalidatedTokens[tokenID]
	if !exists {
		return false, nil
	}

	// Check if the token invalidation has expired
	if s.now().After(expiryTime) {
		delete(s.invalidatedTokens, tokenID)
		return false, nil
	}

	return true, nil
}

// SaveNonce stores an issued nonce until ttl elapses
func (s *MemoryStore) SaveNonce(ctx context.Context, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonces[nonce] = s.now().Add(ttl)
	return nil
}

// ConsumeNonce removes a live nonce
func (s *MemoryStore) ConsumeNonce(ctx context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiryTime, exists := s.nonces[nonce]
	if !exists {
		return core.ErrNonceNotFound
	}
	delete(s.nonces, nonce)

	if s.now().After(expiryTime) {
		return core.ErrNonceNotFound
	}
	return nil
}

// SaveVerification records a verified address
func (s *MemoryStore) SaveVerification(ctx context.Context, v *core.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address := strings.ToLower(v.Address)
	nullifierKey := v.Action + ":" + v.NullifierHash
	if owner, exists := s.nullifiers[nullifierKey]; exists && owner != address {
		return core.ErrAlreadyVerified
	}

	stored := *v
	stored.Address = address
	s.verifications[address] = &stored
	s.nullifiers[nullifierKey] = address
	return nil
}

// GetVerification returns the verification of an address, or nil
func (s *MemoryStore) GetVerification(ctx context.Context, address string) (*core.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.verifications[strings.ToLower(address)]
	if !exists {
		return nil, nil
	}
	out := *v
	return &out, nil
}
