package services

import (
	"context"
	"strings"

	"github.com/aryanprajapat98/REMS/internal/metrics"
	"github.com/aryanprajapat98/REMS/internal/policy"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message types.Message) (types.Message, error)
	ListThread(ctx context.Context, listingID, userID int) ([]types.Message, error)
	CountReceived(ctx context.Context, userID int) (int, error)
}

// SendInput carries a new direct message. A zero ReceiverID addresses the
// listing owner.
type SendInput struct {
	ReceiverID int
	ListingID  int
	Body       string
}

// MessageService handles direct messages about listings.
type MessageService struct {
	repo     MessageRepository
	listings ListingReader
	log      *zap.Logger
}

func NewMessageService(repo MessageRepository, listings ListingReader, log *zap.Logger) *MessageService {
	return &MessageService{
		repo:     repo,
		listings: listings,
		log:      log,
	}
}

// Send stores a message from principal. The server assigns the timestamp.
func (s *MessageService) Send(ctx context.Context, principal *types.Principal, in SendInput) (types.Message, error) {
	if err := authorize(s.log, principal, policy.ActionSendMessage, policy.Resource{}); err != nil {
		return types.Message{}, err
	}

	body := strings.TrimSpace(in.Body)
	if body == "" {
		return types.Message{}, invalid("body", "is required")
	}
	if in.ListingID < 1 {
		return types.Message{}, invalid("listing_id", "is required")
	}
	if in.ReceiverID < 0 {
		return types.Message{}, invalid("receiver_id", "is invalid")
	}

	listing, err := s.listings.Get(ctx, in.ListingID)
	if err != nil {
		return types.Message{}, err
	}
	if !policy.CanViewListing(principal, listing) {
		return types.Message{}, store.ErrNotFound
	}

	receiverID := in.ReceiverID
	if receiverID == 0 {
		receiverID = listing.OwnerID
	}
	if receiverID == principal.UserID {
		return types.Message{}, invalid("receiver_id", "cannot message yourself")
	}

	message, err := s.repo.Create(ctx, types.Message{
		SenderID:   principal.UserID,
		ReceiverID: receiverID,
		ListingID:  listing.ID,
		Body:       body,
	})
	if err != nil {
		return types.Message{}, err
	}
	metrics.MessageSent()
	return message, nil
}

// ListThread returns principal's messages about a listing, oldest first.
// Anonymous callers get an empty thread.
func (s *MessageService) ListThread(ctx context.Context, principal *types.Principal, listingID int) ([]types.Message, error) {
	if !policy.CanPerform(principal, policy.ActionViewThread, policy.Resource{}) {
		return []types.Message{}, nil
	}
	return s.repo.ListThread(ctx, listingID, principal.UserID)
}

// UnreadCount is the number of messages principal has received across all
// listings. There is no read marker, so every received message counts.
func (s *MessageService) UnreadCount(ctx context.Context, principal *types.Principal) (int, error) {
	if !policy.CanPerform(principal, policy.ActionViewThread, policy.Resource{}) {
		return 0, nil
	}
	return s.repo.CountReceived(ctx, principal.UserID)
}
