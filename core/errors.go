package core

import "errors"

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidAddress   = errors.New("invalid ethereum address")
	ErrNonceNotFound    = errors.New("nonce expired or already used")
	ErrNotVerified      = errors.New("address has not completed personhood verification")
	ErrAlreadyVerified  = errors.New("nullifier has already been verified")
	ErrInvalidDraft     = errors.New("invalid token draft")
	ErrInvalidProof     = errors.New("invalid proof request")
)
