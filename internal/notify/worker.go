package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aryanprajapat98/REMS/internal/mq"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sender performs the final delivery of a notification, e.g. an email.
type Sender interface {
	SendPasswordReset(ctx context.Context, email, resetPath string) error
	SendLeadAlert(ctx context.Context, lead types.Lead) error
}

// Subscriber is the subset of mq.MQ used by the worker.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Worker consumes notification channels and hands each event to a Sender.
type Worker struct {
	sub    Subscriber
	sender Sender
	log    *zap.Logger
}

func NewWorker(sub Subscriber, sender Sender, log *zap.Logger) *Worker {
	return &Worker{sub: sub, sender: sender, log: log}
}

// Run blocks until ctx is cancelled or a subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.sub.Subscribe(ctx, ChannelPasswordReset, w.handlePasswordReset)
	})
	g.Go(func() error {
		return w.sub.Subscribe(ctx, ChannelLeadSubmitted, w.handleLeadSubmitted)
	})
	return g.Wait()
}

func (w *Worker) handlePasswordReset(ctx context.Context, msg mq.Message) error {
	var event PasswordResetEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// A malformed payload will never decode; drop it instead of redelivering.
		w.log.Warn("dropping malformed password reset event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	if err := w.sender.SendPasswordReset(ctx, event.Email, ResetPath(event.Token)); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}
	return nil
}

func (w *Worker) handleLeadSubmitted(ctx context.Context, msg mq.Message) error {
	var event LeadSubmittedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		w.log.Warn("dropping malformed lead event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	if err := w.sender.SendLeadAlert(ctx, event.Lead); err != nil {
		return fmt.Errorf("send lead alert: %w", err)
	}
	return nil
}

// LogSender records deliveries in the log instead of sending them.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendPasswordReset(_ context.Context, email, resetPath string) error {
	s.log.Info("password reset delivered", zap.String("email", email), zap.String("reset_path", resetPath))
	return nil
}

func (s *LogSender) SendLeadAlert(_ context.Context, lead types.Lead) error {
	s.log.Info("lead alert delivered",
		zap.Int("lead_id", lead.ID),
		zap.Int("listing_id", lead.ListingID),
		zap.String("from", lead.Email),
	)
	return nil
}
