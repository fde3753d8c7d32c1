package core

import (
	"github.com/shopspring/decimal"
)

// TokenDecimals is the fixed number of decimals of tokens deployed by the factory.
const TokenDecimals = 18

// IconCount is the number of icon/colour presets a token can be created with.
const IconCount = 7

// Token is an ERC-20 token deployed by the factory, as seen by one holder.
type Token struct {
	Address string          `json:"address"`
	Name    string          `json:"name"`
	Symbol  string          `json:"symbol"`
	Balance decimal.Decimal `json:"balance"`
	IconID  int             `json:"iconId"`

	BalanceCompact string `json:"balanceCompact,omitempty"`
}

// TokenDraft is the user input for a new token.
type TokenDraft struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Supply string `json:"supply"`
	IconID int    `json:"iconId"`
}

// TransactionRequest is a contract call for the wallet to sign and submit.
type TransactionRequest struct {
	Address      string        `json:"address"`
	FunctionName string        `json:"functionName"`
	Args         []interface{} `json:"args"`
	Data         string        `json:"data"`
}

var compactUnits = []struct {
	suffix string
	value  decimal.Decimal
}{
	{"T", decimal.New(1, 12)},
	{"B", decimal.New(1, 9)},
	{"M", decimal.New(1, 6)},
	{"K", decimal.New(1, 3)},
}

// CompactAmount renders the whole part of amount with a magnitude suffix
// and two decimals, e.g. 1234567 as "1.23M".
func CompactAmount(amount decimal.Decimal) string {
	whole := amount.Truncate(0)
	for _, u := range compactUnits {
		if whole.GreaterThanOrEqual(u.value) {
			return whole.Div(u.value).StringFixed(2) + u.suffix
		}
	}
	return whole.StringFixed(2)
}
