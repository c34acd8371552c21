package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"

	"github.com/aryanprajapat98/REMS/internal/metrics"
	"github.com/aryanprajapat98/REMS/internal/policy"
	"github.com/aryanprajapat98/REMS/internal/storage"
	"github.com/aryanprajapat98/REMS/internal/store"
	"github.com/aryanprajapat98/REMS/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageBytes bounds the size of a listing image.
const MaxImageBytes = 10 << 20

const imageKeyPrefix = "listings/"

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing types.Listing, contactNumber *string) (types.Listing, error)
	Get(ctx context.Context, id int) (types.Listing, error)
	ListApproved(ctx context.Context) ([]types.Listing, error)
	ListAll(ctx context.Context) ([]types.Listing, error)
	Search(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error)
	Approve(ctx context.Context, id int) error
	Delete(ctx context.Context, id, ownerID int, anyOwner bool) error
}

// ImageStore stores listing images as opaque blobs. *storage.Storage satisfies it.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ImageUpload is an image attached to a new listing.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// ListingInput carries the fields of a new listing.
type ListingInput struct {
	Title         string
	Price         float64
	Location      string
	Description   string
	Bedrooms      *int
	Bathrooms     *int
	Area          *float64
	Amenities     string
	ContactNumber string
	Image         *ImageUpload
}

// ListingService encapsulates the listing lifecycle and search.
type ListingService struct {
	repo        ListingRepository
	images      ImageStore
	autoApprove bool
	log         *zap.Logger
}

// NewListingService constructs a ListingService. images may be nil, in which
// case image uploads are rejected.
func NewListingService(repo ListingRepository, images ImageStore, autoApprove bool, log *zap.Logger) *ListingService {
	return &ListingService{
		repo:        repo,
		images:      images,
		autoApprove: autoApprove,
		log:         log,
	}
}

// Create stores a new listing owned by principal.
func (s *ListingService) Create(ctx context.Context, principal *types.Principal, in ListingInput) (types.Listing, error) {
	if err := authorize(s.log, principal, policy.ActionCreateListing, policy.Resource{}); err != nil {
		return types.Listing{}, err
	}
	listing, err := validateListing(in)
	if err != nil {
		return types.Listing{}, err
	}
	listing.OwnerID = principal.UserID
	listing.Approved = s.autoApprove

	if in.Image != nil && len(in.Image.Data) > 0 {
		key, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return types.Listing{}, err
		}
		listing.ImageKey = &key
	}

	created, err := s.repo.Create(ctx, listing, optionalString(in.ContactNumber))
	if err != nil {
		if listing.ImageKey != nil {
			s.removeImage(ctx, *listing.ImageKey)
		}
		return types.Listing{}, err
	}
	metrics.ListingCreated(created.Approved)
	return created, nil
}

// Approve publishes a listing. Approving an approved listing is a no-op.
func (s *ListingService) Approve(ctx context.Context, principal *types.Principal, id int) error {
	if err := authorize(s.log, principal, policy.ActionApproveListing, policy.Resource{}); err != nil {
		return err
	}
	return s.repo.Approve(ctx, id)
}

// Delete removes a listing. Only its owner or an admin may delete it.
func (s *ListingService) Delete(ctx context.Context, principal *types.Principal, id int) error {
	if principal == nil {
		return ErrUnauthorized
	}
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(s.log, principal, policy.ActionDeleteListing, policy.OwnedBy(listing.OwnerID)); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id, principal.UserID, principal.IsAdmin()); err != nil {
		return err
	}
	if listing.ImageKey != nil {
		s.removeImage(ctx, *listing.ImageKey)
	}
	return nil
}

// ListApproved returns all approved listings in insertion order.
func (s *ListingService) ListApproved(ctx context.Context) ([]types.Listing, error) {
	return s.repo.ListApproved(ctx)
}

// Search filters approved listings. A zero filter returns the same result as ListApproved.
func (s *ListingService) Search(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Location = strings.TrimSpace(filter.Location)
	if !isFinite(filter.MinPrice) || filter.MinPrice < 0 {
		return nil, invalid("min_price", "must be a non-negative number")
	}
	if filter.MaxPrice != nil {
		if !isFinite(*filter.MaxPrice) || *filter.MaxPrice < 0 {
			return nil, invalid("max_price", "must be a non-negative number")
		}
		if *filter.MaxPrice < filter.MinPrice {
			return nil, invalid("max_price", "must not be less than min_price")
		}
	}
	return s.repo.Search(ctx, filter)
}

// Get returns a listing visible to principal. Pending listings of other
// owners are reported as not found.
func (s *ListingService) Get(ctx context.Context, principal *types.Principal, id int) (types.Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Listing{}, err
	}
	if !policy.CanViewListing(principal, listing) {
		return types.Listing{}, store.ErrNotFound
	}
	return listing, nil
}

// Image opens the stored image of a listing visible to principal.
func (s *ListingService) Image(ctx context.Context, principal *types.Principal, id int) (io.ReadCloser, error) {
	listing, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if listing.ImageKey == nil || s.images == nil {
		return nil, store.ErrNotFound
	}
	image, err := s.images.Get(ctx, *listing.ImageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		s.log.Warn("listing image missing from storage", zap.Int("listing_id", id), zap.String("key", *listing.ImageKey))
		return nil, store.ErrNotFound
	}
	return image, err
}

func (s *ListingService) storeImage(ctx context.Context, img *ImageUpload) (string, error) {
	if s.images == nil {
		return "", invalid("image", "image uploads are disabled")
	}
	if len(img.Data) > MaxImageBytes {
		return "", invalid("image", "is too large")
	}
	key := imageKeyPrefix + uuid.NewString()
	if err := s.images.Put(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), img.ContentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *ListingService) removeImage(ctx context.Context, key string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.log.Warn("failed to delete listing image", zap.String("key", key), zap.Error(err))
	}
}

func validateListing(in ListingInput) (types.Listing, error) {
	listing := types.Listing{
		Title:       strings.TrimSpace(in.Title),
		Price:       in.Price,
		Location:    strings.TrimSpace(in.Location),
		Description: strings.TrimSpace(in.Description),
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Area:        in.Area,
		Amenities:   strings.TrimSpace(in.Amenities),
	}
	if listing.Title == "" {
		return types.Listing{}, invalid("title", "is required")
	}
	if listing.Location == "" {
		return types.Listing{}, invalid("location", "is required")
	}
	if !isFinite(listing.Price) || listing.Price < 0 {
		return types.Listing{}, invalid("price", "must be a non-negative number")
	}
	if listing.Bedrooms != nil && *listing.Bedrooms < 0 {
		return types.Listing{}, invalid("bedrooms", "must not be negative")
	}
	if listing.Bathrooms != nil && *listing.Bathrooms < 0 {
		return types.Listing{}, invalid("bathrooms", "must not be negative")
	}
	if listing.Area != nil && (!isFinite(*listing.Area) || *listing.Area < 0) {
		return types.Listing{}, invalid("area", "must be a non-negative number")
	}
	return listing, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
