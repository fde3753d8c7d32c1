package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// TokenFactory reads the factory contract and the tokens it deployed
type TokenFactory struct {
	caller  ethereum.ContractCaller
	address common.Address
	factory abi.ABI
	token   abi.ABI
}

// NewTokenFactory binds the factory deployed at address
func NewTokenFactory(caller ethereum.ContractCaller, address string) (ports.TokenFactory, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: factory %q", core.ErrInvalidAddress, address)
	}

	factory, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory abi: %w", err)
	}
	token, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token abi: %w", err)
	}

	return &TokenFactory{
		caller:  caller,
		address: common.HexToAddress(address),
		factory: factory,
		token:   token,
	}, nil
}

// AllTokens returns the addresses of every token deployed by the factory
func (f *TokenFactory) AllTokens(ctx context.Context) ([]string, error) {
	out, err := f.call(ctx, f.factory, f.address, "getAllTokens")
	if err != nil {
		return nil, err
	}

	addrs := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	tokens := make([]string, len(addrs))
	for i, a := range addrs {
		tokens[i] = a.Hex()
	}

	return tokens, nil
}

// TokenDetails reads name, symbol, icon and the balance of holder
func (f *TokenFactory) TokenDetails(ctx context.Context, token, holder string) (*core.Token, error) {
	if !common.IsHexAddress(token) || !common.IsHexAddress(holder) {
		return nil, core.ErrInvalidAddress
	}
	addr := common.HexToAddress(token)

	var (
		name, symbol    string
		balance, iconID *big.Int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := f.call(ctx, f.token, addr, "name")
		if err != nil {
			return err
		}
		name = *abi.ConvertType(out[0], new(string)).(*string)
		return nil
	})
	g.Go(func() error {
		out, err := f.call(ctx, f.token, addr, "symbol")
		if err != nil {
			return err
		}
		symbol = *abi.ConvertType(out[0], new(string)).(*string)
		return nil
	})
	g.Go(func() error {
		out, err := f.call(ctx, f.token, addr, "balanceOf", common.HexToAddress(holder))
		if err != nil {
			return err
		}
		balance = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
		return nil
	})
	g.Go(func() error {
		out, err := f.call(ctx, f.token, addr, "iconId")
		if err != nil {
			return err
		}
		iconID = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read token %s: %w", addr.Hex(), err)
	}

	return &core.Token{
		Address: addr.Hex(),
		Name:    name,
		Symbol:  symbol,
		Balance: decimal.NewFromBigInt(balance, -core.TokenDecimals),
		IconID:  int(iconID.Int64()),
	}, nil
}

// CreateTokenCall encodes createToken for the wallet to submit
func (f *TokenFactory) CreateTokenCall(owner string, supply *big.Int, name, symbol string, iconID int) (*core.TransactionRequest, error) {
	if !common.IsHexAddress(owner) {
		return nil, core.ErrInvalidAddress
	}
	ownerAddr := common.HexToAddress(owner)

	data, err := f.factory.Pack("createToken", ownerAddr, supply, name, symbol, big.NewInt(int64(iconID)))
	if err != nil {
		return nil, fmt.Errorf("failed to pack createToken: %w", err)
	}

	return &core.TransactionRequest{
		Address:      f.address.Hex(),
		FunctionName: "createToken",
		Args:         []interface{}{ownerAddr.Hex(), supply.String(), name, symbol, iconID},
		Data:         hexutil.Encode(data),
	}, nil
}

func (f *TokenFactory) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	output, err := f.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	values, err := contract.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}

	return values, nil
}
