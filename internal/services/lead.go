package services

import (
	"context"
	"strings"

	"github.com/aryanprajapat98/REMS/internal/metrics"
	"github.com/aryanprajapat98/REMS/internal/notify"
	"github.com/aryanprajapat98/REMS/internal/policy"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"go.uber.org/zap"
)

// LeadRepository defines persistence operations for leads.
type LeadRepository interface {
	Create(ctx context.Context, lead types.Lead) (types.Lead, error)
	List(ctx context.Context) ([]types.Lead, error)
}

// ListingReader looks up a single listing.
type ListingReader interface {
	Get(ctx context.Context, id int) (types.Listing, error)
}

// LeadInput carries an inbound interest message.
type LeadInput struct {
	Name      string
	Email     string
	Message   string
	ListingID int
}

// LeadService records leads and exposes them to administrators.
type LeadService struct {
	repo     LeadRepository
	listings ListingReader
	notifier notify.Notifier
	log      *zap.Logger
}

func NewLeadService(repo LeadRepository, listings ListingReader, notifier notify.Notifier, log *zap.Logger) *LeadService {
	return &LeadService{
		repo:     repo,
		listings: listings,
		notifier: notifier,
		log:      log,
	}
}

// Submit records a lead for a public listing. No principal is required.
func (s *LeadService) Submit(ctx context.Context, in LeadInput) (types.Lead, error) {
	lead := types.Lead{
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Message:   strings.TrimSpace(in.Message),
		ListingID: in.ListingID,
	}
	switch {
	case lead.Name == "":
		return types.Lead{}, invalid("name", "is required")
	case lead.Email == "":
		return types.Lead{}, invalid("email", "is required")
	case lead.Message == "":
		return types.Lead{}, invalid("message", "is required")
	case lead.ListingID < 1:
		return types.Lead{}, invalid("listing_id", "is required")
	}

	listing, err := s.listings.Get(ctx, lead.ListingID)
	if err != nil {
		return types.Lead{}, err
	}
	if !policy.CanViewListing(nil, listing) {
		return types.Lead{}, store.ErrNotFound
	}

	created, err := s.repo.Create(ctx, lead)
	if err != nil {
		return types.Lead{}, err
	}
	metrics.LeadSubmitted()

	if err := s.notifier.LeadSubmitted(ctx, created); err != nil {
		s.log.Warn("lead notification failed", zap.Int("lead_id", created.ID), zap.Error(err))
	}
	return created, nil
}

// ListAll returns every lead. Admin only.
func (s *LeadService) ListAll(ctx context.Context, principal *types.Principal) ([]types.Lead, error) {
	if err := authorize(s.log, principal, policy.ActionListLeads, policy.Resource{}); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}
