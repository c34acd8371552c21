// Package notify delivers out-of-band notifications such as password reset
// links and new-lead alerts.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

const (
	ChannelPasswordReset = "rems.password-reset"
	ChannelLeadSubmitted = "rems.lead-submitted"
)

// PasswordResetEvent asks for a reset link to be delivered to Email.
type PasswordResetEvent struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// LeadSubmittedEvent tells administrators about a new lead.
type LeadSubmittedEvent struct {
	Lead types.Lead `json:"lead"`
}

// Notifier hands notifications to a delivery channel.
type Notifier interface {
	PasswordResetRequested(ctx context.Context, email, token string) error
	LeadSubmitted(ctx context.Context, lead types.Lead) error
}

// Publisher is the subset of mq.MQ used to publish notifications.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// MQNotifier publishes notifications to the message queue for the notify worker.
type MQNotifier struct {
	publisher Publisher
}

func NewMQNotifier(publisher Publisher) *MQNotifier {
	return &MQNotifier{publisher: publisher}
}

func (n *MQNotifier) PasswordResetRequested(ctx context.Context, email, token string) error {
	return n.publish(ctx, ChannelPasswordReset, PasswordResetEvent{Email: email, Token: token})
}

func (n *MQNotifier) LeadSubmitted(ctx context.Context, lead types.Lead) error {
	return n.publish(ctx, ChannelLeadSubmitted, LeadSubmittedEvent{Lead: lead})
}

func (n *MQNotifier) publish(ctx context.Context, channel string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := n.publisher.Publish(ctx, channel, data, map[string]string{"type": channel}); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// LogNotifier writes notifications to the log. It is used when no message
// queue is configured, which only makes sense in development.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) PasswordResetRequested(_ context.Context, email, token string) error {
	n.log.Debug("password reset requested",
		zap.String("email", email),
		zap.String("reset_path", ResetPath(token)),
	)
	return nil
}

func (n *LogNotifier) LeadSubmitted(_ context.Context, lead types.Lead) error {
	n.log.Info("lead submitted",
		zap.Int("lead_id", lead.ID),
		zap.Int("listing_id", lead.ListingID),
	)
	return nil
}

// ResetPath is the client path a reset token is redeemed at.
func ResetPath(token string) string {
	return "/reset-password/" + token
}
