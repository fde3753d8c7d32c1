package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultReadConcurrency = 8

// TokenService lists factory tokens and prepares token deployments
type TokenService struct {
	factory       ports.TokenFactory
	verifications ports.VerificationStore
	logger        *zerolog.Logger

	concurrency int
}

// NewTokenService creates a new token service. concurrency bounds the
// number of tokens read in parallel.
func NewTokenService(
	factory ports.TokenFactory,
	verifications ports.VerificationStore,
	concurrency int,
	logger *zerolog.Logger,
) *TokenService {
	if concurrency <= 0 {
		concurrency = defaultReadConcurrency
	}
	return &TokenService{
		factory:       factory,
		verifications: verifications,
		logger:        logger,
		concurrency:   concurrency,
	}
}

// ListTokens returns every factory token with the balance of holder, in
// factory order.
func (s *TokenService) ListTokens(ctx context.Context, holder string) ([]*core.Token, error) {
	addresses, err := s.factory.AllTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	tokens := make([]*core.Token, len(addresses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, addr := range addresses {
		g.Go(func() error {
			token, err := s.factory.TokenDetails(gctx, addr, holder)
			if err != nil {
				return err
			}
			token.BalanceCompact = core.CompactAmount(token.Balance)
			tokens[i] = token
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read token details: %w", err)
	}

	s.logger.Debug().Str("holder", holder).Int("tokens", len(tokens)).Msg("tokens listed")
	return tokens, nil
}

// PrepareCreateToken returns the factory call deploying draft for owner.
// Only verified addresses may create tokens.
func (s *TokenService) PrepareCreateToken(ctx context.Context, owner string, draft *core.TokenDraft) (*core.TransactionRequest, error) {
	v, err := s.verifications.GetVerification(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification: %w", err)
	}
	if v == nil {
		return nil, core.ErrNotVerified
	}

	name, symbol, units, err := parseDraft(draft)
	if err != nil {
		return nil, err
	}

	tx, err := s.factory.CreateTokenCall(owner, units.BigInt(), name, symbol, draft.IconID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode createToken: %w", err)
	}

	s.logger.Info().
		Str("owner", owner).
		Str("symbol", symbol).
		Str("supply", draft.Supply).
		Msg("token deployment prepared")
	return tx, nil
}

// parseDraft checks draft and converts its supply to base units
func parseDraft(draft *core.TokenDraft) (string, string, decimal.Decimal, error) {
	if draft == nil {
		return "", "", decimal.Zero, fmt.Errorf("%w: empty draft", core.ErrInvalidDraft)
	}

	name := strings.TrimSpace(draft.Name)
	symbol := strings.TrimSpace(draft.Symbol)
	supplyStr := strings.TrimSpace(draft.Supply)
	if name == "" || symbol == "" || supplyStr == "" {
		return "", "", decimal.Zero, fmt.Errorf("%w: name, symbol and supply are required", core.ErrInvalidDraft)
	}

	if draft.IconID < 0 || draft.IconID >= core.IconCount {
		return "", "", decimal.Zero, fmt.Errorf("%w: icon id must be between 0 and %d", core.ErrInvalidDraft, core.IconCount-1)
	}

	supply, err := decimal.NewFromString(supplyStr)
	if err != nil {
		return "", "", decimal.Zero, fmt.Errorf("%w: supply %q is not a number", core.ErrInvalidDraft, supplyStr)
	}
	if !supply.IsPositive() {
		return "", "", decimal.Zero, fmt.Errorf("%w: supply must be positive", core.ErrInvalidDraft)
	}

	units := supply.Shift(core.TokenDecimals)
	if !units.IsInteger() {
		return "", "", decimal.Zero, fmt.Errorf("%w: supply has more than %d decimals", core.ErrInvalidDraft, core.TokenDecimals)
	}

	return name, symbol, units, nil
}
