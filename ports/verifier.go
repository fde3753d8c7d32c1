package ports

import (
	"context"

	"github.com/layer-3/tute/core"
)

// SignatureVerifier proves that signature was produced over message by the
// key controlling address. Message validation assumes this already passed.
type SignatureVerifier interface {
	VerifySignature(ctx context.Context, message, signature, address string) error
}

// ProofVerifier asks the identity service whether a personhood proof is valid.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, proof *core.ProofPayload, action, signal string) (*core.ProofResult, error)
}

// ProfileResolver looks up the public wallet profile of an address.
type ProfileResolver interface {
	ProfileByAddress(ctx context.Context, address string) (*core.Profile, error)
}
