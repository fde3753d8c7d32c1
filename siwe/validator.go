package siwe

import (
	"context"
	"fmt"
	"strings"

	"github.com/layer-3/tute/ports"
)

// Validator runs signature verification before Verify, so that a valid
// Result always means the signer controls the returned address.
type Validator struct {
	signatures ports.SignatureVerifier
}

// NewValidator creates a validator backed by the given signature verifier
func NewValidator(signatures ports.SignatureVerifier) *Validator {
	return &Validator{signatures: signatures}
}

// Validate checks fields, then the signature, then the message itself.
// Like Verify it reports every failure as a Result.
func (v *Validator) Validate(ctx context.Context, payload *WalletAuthPayload, nonce string) Result {
	if res, ok := checkPayload(payload); !ok {
		return res
	}

	if err := v.signatures.VerifySignature(ctx, payload.Message, payload.Signature, payload.Address); err != nil {
		return invalid(ReasonSignature, fmt.Sprintf("Signature verification failed: %s", err))
	}

	res := Verify(payload, nonce)
	if !res.IsValid {
		return res
	}

	// The signature binds the payload address, so an address line naming
	// someone else must not become the session identity.
	if res.Data.Address != strings.ToLower(payload.Address) {
		return invalid(ReasonSignature, fmt.Sprintf("Address mismatch. Message: %s, Signer: %s", res.Data.Address, strings.ToLower(payload.Address)))
	}

	return res
}
