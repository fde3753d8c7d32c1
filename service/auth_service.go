package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/layer-3/tute/siwe"
	"github.com/rs/zerolog"
)

// AuthTTLs configures how long nonces and tokens stay usable
type AuthTTLs struct {
	Nonce   time.Duration
	Access  time.Duration
	Refresh time.Duration
}

// DefaultAuthTTLs are used for every zero field passed to NewAuthService
var DefaultAuthTTLs = AuthTTLs{
	Nonce:   time.Hour,
	Access:  5 * time.Minute,
	Refresh: 5 * 24 * time.Hour, // 5 days
}

// SignIn is the outcome of a wallet sign-in attempt. When Result is not
// valid no tokens are issued and User is nil.
type SignIn struct {
	Result       siwe.Result
	User         *core.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AuthService handles authentication business logic
type AuthService struct {
	tokenizer ports.Tokenizer
	store     ports.Store
	nonces    ports.NonceStore
	eventPub  ports.EventPublisher
	validator *siwe.Validator
	profiles  ports.ProfileResolver
	logger    *zerolog.Logger

	ttl AuthTTLs
}

// NewAuthService creates a new authentication service. profiles may be nil.
func NewAuthService(
	tokenizer ports.Tokenizer,
	store ports.Store,
	nonces ports.NonceStore,
	eventPub ports.EventPublisher,
	validator *siwe.Validator,
	profiles ports.ProfileResolver,
	ttl AuthTTLs,
	logger *zerolog.Logger,
) *AuthService {
	if ttl.Nonce <= 0 {
		ttl.Nonce = DefaultAuthTTLs.Nonce
	}
	if ttl.Access <= 0 {
		ttl.Access = DefaultAuthTTLs.Access
	}
	if ttl.Refresh <= 0 {
		ttl.Refresh = DefaultAuthTTLs.Refresh
	}

	return &AuthService{
		tokenizer: tokenizer,
		store:     store,
		nonces:    nonces,
		eventPub:  eventPub,
		validator: validator,
		profiles:  profiles,
		logger:    logger,
		ttl:       ttl,
	}
}

// NonceTTL is how long an issued nonce can be consumed
func (s *AuthService) NonceTTL() time.Duration {
	return s.ttl.Nonce
}

// AccessTTL is the lifetime of issued access tokens
func (s *AuthService) AccessTTL() time.Duration {
	return s.ttl.Access
}

// IssueNonce creates a single-use sign-in nonce
func (s *AuthService) IssueNonce(ctx context.Context) (string, error) {
	nonce := strings.ReplaceAll(uuid.New().String(), "-", "")

	if err := s.nonces.SaveNonce(ctx, nonce, s.ttl.Nonce); err != nil {
		return "", fmt.Errorf("failed to save nonce: %w", err)
	}

	return nonce, nil
}

// CompleteSignIn validates a signed wallet payload against the expected
// nonce, burns the nonce and opens a session. Rejections are reported in
// SignIn.Result; the error is reserved for infrastructure failures.
func (s *AuthService) CompleteSignIn(ctx context.Context, payload *siwe.WalletAuthPayload, nonce string) (*SignIn, error) {
	if payload != nil && payload.Status != "success" {
		return &SignIn{Result: siwe.Result{Reason: siwe.ReasonUnexpected, Error: "Wallet returned error status"}}, nil
	}

	res := s.validator.Validate(ctx, payload, nonce)
	if !res.IsValid {
		return &SignIn{Result: res}, nil
	}

	if err := s.nonces.ConsumeNonce(ctx, nonce); err != nil {
		if errors.Is(err, core.ErrNonceNotFound) {
			return &SignIn{Result: siwe.Result{Reason: siwe.ReasonNonceMismatch, Error: "Nonce expired or already used"}}, nil
		}
		return nil, fmt.Errorf("failed to consume nonce: %w", err)
	}

	address := res.Data.Address
	user := &core.User{ID: address, Address: address}
	if profile := s.lookupProfile(ctx, address); profile != nil {
		user.Name = profile.Username
		user.Image = profile.ProfilePictureURL
	}

	session, accessToken, refreshToken, err := s.openSession(address)
	if err != nil {
		return nil, err
	}

	if err := s.eventPub.PublishSignIn(ctx, user, session.ID); err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("failed to publish sign-in event")
	}

	return &SignIn{
		Result:       res,
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.ttl.Access,
	}, nil
}

func (s *AuthService) lookupProfile(ctx context.Context, address string) *core.Profile {
	if s.profiles == nil {
		return nil
	}

	profile, err := s.profiles.ProfileByAddress(ctx, address)
	if err != nil {
		s.logger.Warn().Err(err).Str("address", address).Msg("profile lookup failed")
		return nil
	}

	return profile
}

func (s *AuthService) openSession(address string) (*core.Session, string, string, error) {
	now := time.Now()
	session := &core.Session{
		ID:            uuid.New().String(),
		Address:       address,
		IssuedAt:      now,
		RefreshExpiry: now.Add(s.ttl.Refresh),
		AccessExpiry:  now.Add(s.ttl.Access),
		RefreshID:     uuid.New().String(),
	}

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	return session, accessToken, refreshToken, nil
}

// Refresh rotates the refresh token and issues new access and refresh tokens
func (s *AuthService) Refresh(ctx context.Context, refreshTokenStr string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if time.Now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", "", core.ErrTokenInvalidated
	}

	// The revocation only has to outlive the token it revokes
	if err := s.store.InvalidateToken(ctx, session.RefreshID, time.Until(session.RefreshExpiry)); err != nil {
		return "", "", fmt.Errorf("failed to invalidate old token: %w", err)
	}

	_, accessToken, refreshToken, err := s.openSession(session.Address)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// Logout invalidates a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshTokenStr string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshTokenStr)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	remainingTime := time.Until(session.RefreshExpiry)
	if remainingTime <= 0 {
		remainingTime = time.Hour
	}

	if err := s.store.InvalidateToken(ctx, session.RefreshID, remainingTime); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, session.Address, session.RefreshID); err != nil {
		s.logger.Warn().Err(err).Str("address", session.Address).Msg("failed to publish logout event")
	}

	return nil
}

// ValidateAccessToken returns the session of a live access token. Access
// tokens die with the refresh token they were issued alongside.
func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	if time.Now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}

	if session.RefreshID != "" {
		invalidated, err := s.store.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, core.ErrTokenInvalidated
		}
	}

	return session, nil
}
