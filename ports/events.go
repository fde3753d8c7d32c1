package ports

import (
	"context"

	"github.com/layer-3/tute/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishSignIn(ctx context.Context, user *core.User, sessionID string) error
	PublishLogout(ctx context.Context, address string, tokenID string) error
	PublishVerified(ctx context.Context, v *core.Verification) error
}
