package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/tute/core"
	"github.com/layer-3/tute/ports"
)

const (
	TopicSignIn   = "tute.signin"
	TopicLogout   = "tute.logout"
	TopicVerified = "tute.verified"
)

// SignInEvent is published after a successful wallet sign-in
type SignInEvent struct {
	Address   string `json:"address"`
	Name      string `json:"name,omitempty"`
	SessionID string `json:"session_id"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string `json:"address"`
	TokenID string `json:"token_id"`
}

// VerifiedEvent is published when an address proves personhood
type VerifiedEvent struct {
	Address    string    `json:"address"`
	Action     string    `json:"action"`
	Level      string    `json:"verification_level"`
	VerifiedAt time.Time `json:"verified_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
	}
}

// PublishSignIn publishes a sign-in event
func (p *WatermillPublisher) PublishSignIn(ctx context.Context, user *core.User, sessionID string) error {
	return p.publish(ctx, TopicSignIn, SignInEvent{
		Address:   user.Address,
		Name:      user.Name,
		SessionID: sessionID,
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, TopicLogout, LogoutEvent{
		Address: address,
		TokenID: tokenID,
	})
}

// PublishVerified publishes a personhood verification event
func (p *WatermillPublisher) PublishVerified(ctx context.Context, v *core.Verification) error {
	return p.publish(ctx, TopicVerified, VerifiedEvent{
		Address:    v.Address,
		Action:     v.Action,
		Level:      string(v.Level),
		VerifiedAt: v.VerifiedAt,
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
