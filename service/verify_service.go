package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/rs/zerolog"
)

// VerifyService records addresses that proved personhood
type VerifyService struct {
	proofs   ports.ProofVerifier
	store    ports.VerificationStore
	eventPub ports.EventPublisher
	logger   *zerolog.Logger

	now func() time.Time
}

// NewVerifyService creates a new personhood verification service
func NewVerifyService(
	proofs ports.ProofVerifier,
	store ports.VerificationStore,
	eventPub ports.EventPublisher,
	logger *zerolog.Logger,
) *VerifyService {
	return &VerifyService{
		proofs:   proofs,
		store:    store,
		eventPub: eventPub,
		logger:   logger,
		now:      time.Now,
	}
}

// Verify forwards proof to the proof verifier on behalf of address. A
// proof rejected by the verifier is returned as an unsuccessful result.
func (s *VerifyService) Verify(ctx context.Context, address string, proof *core.ProofPayload, action, signal string) (*core.ProofResult, error) {
	if proof == nil || proof.NullifierHash == "" || proof.Proof == "" || proof.MerkleRoot == "" {
		return nil, fmt.Errorf("%w: incomplete proof", core.ErrInvalidProof)
	}
	if strings.TrimSpace(action) == "" {
		return nil, fmt.Errorf("%w: missing action", core.ErrInvalidProof)
	}

	res, err := s.proofs.VerifyProof(ctx, proof, action, signal)
	if err != nil {
		return nil, fmt.Errorf("proof verification failed: %w", err)
	}
	if !res.Success {
		s.logger.Info().
			Str("address", address).
			Str("action", action).
			Str("code", res.Code).
			Msg("proof rejected")
		return res, nil
	}

	v := &core.Verification{
		Address:       strings.ToLower(address),
		Action:        action,
		NullifierHash: proof.NullifierHash,
		Level:         proof.VerificationLevel,
		VerifiedAt:    s.now(),
	}
	if err := s.store.SaveVerification(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}

	if err := s.eventPub.PublishVerified(ctx, v); err != nil {
		s.logger.Warn().Err(err).Str("address", v.Address).Msg("failed to publish verified event")
	}

	return res, nil
}

// Status returns the verification of address, or nil if it never verified
func (s *VerifyService) Status(ctx context.Context, address string) (*core.Verification, error) {
	v, err := s.store.GetVerification(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}
	return v, nil
}
