package signature

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
	"github.com/spruceid/siwe-go"
)

// SIWEVerifier parses the message as a strict EIP-4361 document and checks
// its signature, domain and validity window.
type SIWEVerifier struct {
	allowedDomains []string
}

// NewSIWEVerifier creates a verifier. An empty domain list accepts any domain.
func NewSIWEVerifier(allowedDomains []string) ports.SignatureVerifier {
	return &SIWEVerifier{allowedDomains: allowedDomains}
}

func (v *SIWEVerifier) VerifySignature(_ context.Context, message, signature, address string) error {
	if !common.IsHexAddress(address) {
		return core.ErrInvalidAddress
	}

	msg, err := siwe.ParseMessage(message)
	if err != nil {
		return fmt.Errorf("failed to parse SIWE message: %w", err)
	}

	pub, err := msg.VerifyEIP191(signature)
	if err != nil {
		return fmt.Errorf("failed to verify SIWE signature: %s: %w", err, core.ErrInvalidSignature)
	}

	if !v.isDomainAllowed(msg.GetDomain()) {
		return fmt.Errorf("domain %s is not allowed", msg.GetDomain())
	}

	if ok, err := msg.ValidNow(); !ok {
		return fmt.Errorf("SIWE message expired: %v", err)
	}

	signer := crypto.PubkeyToAddress(*pub)
	if !strings.EqualFold(signer.Hex(), address) {
		return fmt.Errorf("signer %s does not match %s: %w", signer.Hex(), address, core.ErrInvalidSignature)
	}

	return nil
}

func (v *SIWEVerifier) isDomainAllowed(domain string) bool {
	if len(v.allowedDomains) == 0 {
		return true
	}
	for _, allowed := range v.allowedDomains {
		if domain == allowed {
			return true
		}
	}
	return false
}
