package ports

import (
	"context"
	"math/big"

	"github.com/layer-3/tute/core"
)

// TokenFactory reads the token factory contract and encodes calls to it.
type TokenFactory interface {
	AllTokens(ctx context.Context) ([]string, error)
	TokenDetails(ctx context.Context, token, holder string) (*core.Token, error)
	CreateTokenCall(owner string, supply *big.Int, name, symbol string, iconID int) (*core.TransactionRequest, error)
}
