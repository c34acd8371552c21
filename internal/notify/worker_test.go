package notify

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aryanprajapat98/REMS/internal/mq"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

// memBroker queues published messages and replays them to subscribers.
type memBroker struct {
	mu     sync.Mutex
	nextID int
	queued map[string][]mq.Message
}

func newMemBroker() *memBroker {
	return &memBroker{queued: map[string][]mq.Message{}}
}

func (b *memBroker) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := strconv.Itoa(b.nextID)
	b.queued[channel] = append(b.queued[channel], mq.Message{ID: id, Data: data, Attributes: attrs})
	return id, nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string, handler mq.Handler) error {
	b.mu.Lock()
	msgs := b.queued[channel]
	b.queued[channel] = nil
	b.mu.Unlock()

	for _, msg := range msgs {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type recordingSender struct {
	mu     sync.Mutex
	resets map[string]string
	leads  []types.Lead
	events chan struct{}
}

func newRecordingSender() *recordingSender {
	return &recordingSender{resets: map[string]string{}, events: make(chan struct{}, 8)}
}

func (s *recordingSender) SendPasswordReset(_ context.Context, email, resetPath string) error {
	s.mu.Lock()
	s.resets[email] = resetPath
	s.mu.Unlock()
	s.events <- struct{}{}
	return nil
}

func (s *recordingSender) SendLeadAlert(_ context.Context, lead types.Lead) error {
	s.mu.Lock()
	s.leads = append(s.leads, lead)
	s.mu.Unlock()
	s.events <- struct{}{}
	return nil
}

func TestWorkerDeliversPublishedEvents(t *testing.T) {
	broker := newMemBroker()
	notifier := NewMQNotifier(broker)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := notifier.PasswordResetRequested(ctx, "dan@example.com", "tok123"); err != nil {
		t.Fatalf("publish reset: %v", err)
	}
	if err := notifier.LeadSubmitted(ctx, types.Lead{ID: 7, ListingID: 3, Email: "walkin@example.com"}); err != nil {
		t.Fatalf("publish lead: %v", err)
	}
	if _, err := broker.Publish(ctx, ChannelPasswordReset, []byte("{not json"), nil); err != nil {
		t.Fatalf("publish junk: %v", err)
	}

	sender := newRecordingSender()
	worker := NewWorker(broker, sender, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-sender.events:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if got := sender.resets["dan@example.com"]; got != "/reset-password/tok123" {
		t.Fatalf("reset path = %q", got)
	}
	if len(sender.resets) != 1 {
		t.Fatalf("malformed event was delivered: %+v", sender.resets)
	}
	if len(sender.leads) != 1 || sender.leads[0].ID != 7 {
		t.Fatalf("leads = %+v", sender.leads)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", errors.New("broker down")
}

func TestMQNotifierWrapsPublishErrors(t *testing.T) {
	err := NewMQNotifier(failingPublisher{}).PasswordResetRequested(context.Background(), "a@example.com", "t")
	if err == nil || err.Error() != "publish "+ChannelPasswordReset+": broker down" {
		t.Fatalf("unexpected error: %v", err)
	}
}
