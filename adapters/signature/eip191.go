package signature

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
)

// EIP191Verifier checks personal_sign signatures by recovering the signer
// of the EIP-191 prefixed message hash.
type EIP191Verifier struct{}

// NewEIP191Verifier creates a new EIP-191 signature verifier
func NewEIP191Verifier() ports.SignatureVerifier {
	return EIP191Verifier{}
}

// VerifySignature verifies an Ethereum personal signature against an address
func (EIP191Verifier) VerifySignature(_ context.Context, message, signature, address string) error {
	if !common.IsHexAddress(address) {
		return core.ErrInvalidAddress
	}

	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}

	if recovered != common.HexToAddress(address) {
		return fmt.Errorf("signer %s does not match %s: %w", recovered.Hex(), address, core.ErrInvalidSignature)
	}

	return nil
}

// RecoverAddress returns the address that produced signature over message.
func RecoverAddress(message, signature string) (common.Address, error) {
	decoded, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(decoded) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes: %w", core.ErrInvalidSignature)
	}

	sig := make([]byte, len(decoded))
	copy(sig, decoded)
	// wallets return V as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return crypto.PubkeyToAddress(*pub), nil
}
