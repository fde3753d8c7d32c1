package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/layer-3/tute/core"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testLogger = zerolog.Nop()

func newSigningKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	signIns  []*core.User
	logouts  []string
	verified []*core.Verification
}

func (p *recordingPublisher) PublishSignIn(ctx context.Context, user *core.User, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns = append(p.signIns, user)
	return p.err
}

func (p *recordingPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, address)
	return p.err
}

func (p *recordingPublisher) PublishVerified(ctx context.Context, v *core.Verification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified = append(p.verified, v)
	return p.err
}

type profileFunc func(ctx context.Context, address string) (*core.Profile, error)

func (f profileFunc) ProfileByAddress(ctx context.Context, address string) (*core.Profile, error) {
	return f(ctx, address)
}

type proofFunc func(ctx context.Context, proof *core.ProofPayload, action, signal string) (*core.ProofResult, error)

func (f proofFunc) VerifyProof(ctx context.Context, proof *core.ProofPayload, action, signal string) (*core.ProofResult, error) {
	return f(ctx, proof, action, signal)
}

// fakeFactory serves tokens from memory
type fakeFactory struct {
	mu      sync.Mutex
	tokens  map[string]*core.Token
	order   []string
	listErr error
	reads   int

	created *createCall
}

type createCall struct {
	owner  string
	supply *big.Int
	name   string
	symbol string
	iconID int
}

func (f *fakeFactory) add(tok *core.Token) {
	if f.tokens == nil {
		f.tokens = map[string]*core.Token{}
	}
	f.tokens[tok.Address] = tok
	f.order = append(f.order, tok.Address)
}

func (f *fakeFactory) AllTokens(ctx context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.order...), nil
}

func (f *fakeFactory) TokenDetails(ctx context.Context, token, holder string) (*core.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++

	tok, ok := f.tokens[token]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	out := *tok
	return &out, nil
}

func (f *fakeFactory) CreateTokenCall(owner string, supply *big.Int, name, symbol string, iconID int) (*core.TransactionRequest, error) {
	f.created = &createCall{owner: owner, supply: supply, name: name, symbol: symbol, iconID: iconID}
	return &core.TransactionRequest{
		Address:      "0xfactory",
		FunctionName: "createToken",
		Args:         []interface{}{owner, supply.String(), name, symbol, iconID},
		Data:         "0x",
	}, nil
}
