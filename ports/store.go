package ports

import (
	"context"
	"time"

	"github.com/layer-3/tute/core"
)

// Store interface for token invalidation
type Store interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}

// NonceStore keeps issued sign-in nonces until they are consumed or expire.
type NonceStore interface {
	SaveNonce(ctx context.Context, nonce string, ttl time.Duration) error
	// ConsumeNonce removes the nonce. It returns core.ErrNonceNotFound if the
	// nonce was never issued, has expired or was already consumed.
	ConsumeNonce(ctx context.Context, nonce string) error
}

// VerificationStore records addresses that proved personhood.
type VerificationStore interface {
	// SaveVerification returns core.ErrAlreadyVerified when the nullifier was
	// already recorded for another address.
	SaveVerification(ctx context.Context, v *core.Verification) error
	GetVerification(ctx context.Context, address string) (*core.Verification, error)
}
