package signature

import (
	"context"
	"errors"

	"github.com/layer-3/tute/ports"
)

// Chain tries each verifier in order and accepts the first success.
type Chain []ports.SignatureVerifier

func (c Chain) VerifySignature(ctx context.Context, message, signature, address string) error {
	if len(c) == 0 {
		return errors.New("no signature verifier configured")
	}

	var errs []error
	for _, v := range c {
		err := v.VerifySignature(ctx, message, signature, address)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
