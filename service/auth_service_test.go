package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/tute/adapters/signature"
	"github.com/layer-3/tute/adapters/store"
	"github.com/layer-3/tute/adapters/tokenizer"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/layer-3/tute/siwe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc    *AuthService
	store  *store.MemoryStore
	events *recordingPublisher
}

func newAuthFixture(t *testing.T, profiles profileFunc) *authFixture {
	t.Helper()
	st := store.NewMemoryStore()
	events := &recordingPublisher{}

	var resolver ports.ProfileResolver
	if profiles != nil {
		resolver = profiles
	}

	svc := NewAuthService(
		tokenizer.NewJWTTokenizer(newSigningKey(t), "tute"),
		st,
		st,
		events,
		siwe.NewValidator(signature.NewEIP191Verifier()),
		resolver,
		AuthTTLs{},
		&testLogger,
	)
	return &authFixture{svc: svc, store: st, events: events}
}

// walletPayload signs a wallet style sign-in message with a fresh key
func walletPayload(t *testing.T, nonce string) *siwe.WalletAuthPayload {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message := "tute.app wants you to sign in with your Ethereum account:\n" +
		address + "\n\n" +
		"Sign in to tute\n\n" +
		"URI: https://tute.app\n" +
		"Version: 1\n" +
		"Chain ID: 480\n" +
		"Nonce: " + nonce + "\n" +
		"Issued At: 2024-01-01T00:00:00Z"

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	return &siwe.WalletAuthPayload{
		Status:    "success",
		Message:   message,
		Signature: hexutil.Encode(sig),
		Address:   address,
		Version:   1,
	}
}

func TestIssueNonce(t *testing.T) {
	f := newAuthFixture(t, nil)
	ctx := context.Background()

	a, err := f.svc.IssueNonce(ctx)
	require.NoError(t, err)
	b, err := f.svc.IssueNonce(ctx)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotContains(t, a, "-")
	assert.NotEqual(t, a, b)
	assert.Equal(t, time.Hour, f.svc.NonceTTL())

	require.NoError(t, f.store.ConsumeNonce(ctx, a))
}

func TestCompleteSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t, func(ctx context.Context, address string) (*core.Profile, error) {
			return &core.Profile{Username: "alice", ProfilePictureURL: "https://img/alice.png"}, nil
		})
		nonce, err := f.svc.IssueNonce(ctx)
		require.NoError(t, err)
		payload := walletPayload(t, nonce)

		out, err := f.svc.CompleteSignIn(ctx, payload, nonce)
		require.NoError(t, err)
		require.True(t, out.Result.IsValid, out.Result.Error)

		address := strings.ToLower(payload.Address)
		assert.Equal(t, address, out.Result.Data.Address)
		assert.Equal(t, &core.User{ID: address, Address: address, Name: "alice", Image: "https://img/alice.png"}, out.User)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotEmpty(t, out.RefreshToken)
		assert.Equal(t, DefaultAuthTTLs.Access, out.ExpiresIn)

		session, err := f.svc.ValidateAccessToken(ctx, out.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, address, session.Address)

		require.Len(t, f.events.signIns, 1)
		assert.Equal(t, address, f.events.signIns[0].Address)
	})

	t.Run("nonce is single use", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		nonce, err := f.svc.IssueNonce(ctx)
		require.NoError(t, err)
		payload := walletPayload(t, nonce)

		first, err := f.svc.CompleteSignIn(ctx, payload, nonce)
		require.NoError(t, err)
		require.True(t, first.Result.IsValid)

		replay, err := f.svc.CompleteSignIn(ctx, payload, nonce)
		require.NoError(t, err)
		assert.False(t, replay.Result.IsValid)
		assert.Equal(t, "Nonce expired or already used", replay.Result.Error)
		assert.Empty(t, replay.AccessToken)
	})

	t.Run("nonce never issued", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		payload := walletPayload(t, "forged123")

		out, err := f.svc.CompleteSignIn(ctx, payload, "forged123")
		require.NoError(t, err)
		assert.False(t, out.Result.IsValid)
		assert.Equal(t, "Nonce expired or already used", out.Result.Error)
		assert.Empty(t, f.events.signIns)
	})

	t.Run("nonce mismatch keeps the nonce", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		nonce, err := f.svc.IssueNonce(ctx)
		require.NoError(t, err)

		out, err := f.svc.CompleteSignIn(ctx, walletPayload(t, "other1234"), nonce)
		require.NoError(t, err)
		assert.False(t, out.Result.IsValid)
		assert.Equal(t, siwe.ReasonNonceMismatch, out.Result.Reason)
		assert.Equal(t, "Nonce mismatch. Got: other1234, Expected: "+nonce, out.Result.Error)

		assert.NoError(t, f.store.ConsumeNonce(ctx, nonce))
	})

	t.Run("wallet error status", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		payload := walletPayload(t, "abc123XY")
		payload.Status = "error"

		out, err := f.svc.CompleteSignIn(ctx, payload, "abc123XY")
		require.NoError(t, err)
		assert.False(t, out.Result.IsValid)
		assert.Equal(t, "Wallet returned error status", out.Result.Error)
	})

	t.Run("forged signature", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		nonce, err := f.svc.IssueNonce(ctx)
		require.NoError(t, err)
		payload := walletPayload(t, nonce)
		payload.Address = walletPayload(t, nonce).Address

		out, err := f.svc.CompleteSignIn(ctx, payload, nonce)
		require.NoError(t, err)
		assert.False(t, out.Result.IsValid)
		assert.Equal(t, siwe.ReasonSignature, out.Result.Reason)
		assert.NoError(t, f.store.ConsumeNonce(ctx, nonce))
	})

	t.Run("profile lookup failure is not fatal", func(t *testing.T) {
		f := newAuthFixture(t, func(ctx context.Context, address string) (*core.Profile, error) {
			return nil, errors.New("directory down")
		})
		nonce, err := f.svc.IssueNonce(ctx)
		require.NoError(t, err)

		out, err := f.svc.CompleteSignIn(ctx, walletPayload(t, nonce), nonce)
		require.NoError(t, err)
		require.True(t, out.Result.IsValid)
		assert.Empty(t, out.User.Name)
		assert.Empty(t, out.User.Image)
	})

	t.Run("event failure is not fatal", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		f.events.err = errors.New("broker down")
		nonce, err := f.svc.IssueNonce(ctx)
		require.NoError(t, err)

		out, err := f.svc.CompleteSignIn(ctx, walletPayload(t, nonce), nonce)
		require.NoError(t, err)
		assert.True(t, out.Result.IsValid)
	})
}

func signedIn(t *testing.T, f *authFixture) *SignIn {
	t.Helper()
	ctx := context.Background()
	nonce, err := f.svc.IssueNonce(ctx)
	require.NoError(t, err)
	out, err := f.svc.CompleteSignIn(ctx, walletPayload(t, nonce), nonce)
	require.NoError(t, err)
	require.True(t, out.Result.IsValid, out.Result.Error)
	return out
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, nil)
	in := signedIn(t, f)

	access, refresh, err := f.svc.Refresh(ctx, in.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, in.RefreshToken, refresh)

	session, err := f.svc.ValidateAccessToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, in.User.Address, session.Address)

	t.Run("old refresh token is revoked", func(t *testing.T) {
		_, _, err := f.svc.Refresh(ctx, in.RefreshToken)
		assert.ErrorIs(t, err, core.ErrTokenInvalidated)

		_, err = f.svc.ValidateAccessToken(ctx, in.AccessToken)
		assert.ErrorIs(t, err, core.ErrTokenInvalidated)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := f.svc.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, _, err := f.svc.Refresh(ctx, access)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, nil)
	in := signedIn(t, f)

	require.NoError(t, f.svc.Logout(ctx, in.RefreshToken))

	_, err := f.svc.ValidateAccessToken(ctx, in.AccessToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)

	_, _, err = f.svc.Refresh(ctx, in.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenInvalidated)

	assert.Equal(t, []string{in.User.Address}, f.events.logouts)

	t.Run("publish failure still logs out", func(t *testing.T) {
		f := newAuthFixture(t, nil)
		in := signedIn(t, f)
		f.events.err = errors.New("broker down")

		require.NoError(t, f.svc.Logout(ctx, in.RefreshToken))
		_, err := f.svc.ValidateAccessToken(ctx, in.AccessToken)
		assert.ErrorIs(t, err, core.ErrTokenInvalidated)
	})

	t.Run("invalid token", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Logout(ctx, "garbage"), core.ErrInvalidToken)
	})
}
