package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aryanprajapat98/REMS/internal/db"
	"github.com/aryanprajapat98/REMS/types"
)

// ListingRepository handles persistence for listings.
type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingSelect = `
	SELECT l.id, l.title, l.price, l.location, l.description, l.image_key, l.owner_id,
	       l.approved, l.bedrooms, l.bathrooms, l.area, l.amenities, l.created_at,
	       u.contact_number
	FROM listings l
	LEFT JOIN users u ON u.id = l.owner_id`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanListing(row rowScanner) (types.Listing, error) {
	var listing types.Listing
	err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Price,
		&listing.Location,
		&listing.Description,
		&listing.ImageKey,
		&listing.OwnerID,
		&listing.Approved,
		&listing.Bedrooms,
		&listing.Bathrooms,
		&listing.Area,
		&listing.Amenities,
		&listing.CreatedAt,
		&listing.OwnerContact,
	)
	return listing, err
}

func (r *ListingRepository) queryListings(ctx context.Context, query string, args ...any) ([]types.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]types.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// Create inserts listing and, when contactNumber is set, stores it on the
// owner in the same transaction.
func (r *ListingRepository) Create(ctx context.Context, listing types.Listing, contactNumber *string) (types.Listing, error) {
	listing.CreatedAt = time.Now()

	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		const insertQuery = `
			INSERT INTO listings (title, price, location, description, image_key, owner_id, approved,
			                      bedrooms, bathrooms, area, amenities, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id`
		if err := tx.QueryRowContext(
			ctx,
			insertQuery,
			listing.Title,
			listing.Price,
			listing.Location,
			listing.Description,
			listing.ImageKey,
			listing.OwnerID,
			listing.Approved,
			listing.Bedrooms,
			listing.Bathrooms,
			listing.Area,
			listing.Amenities,
			listing.CreatedAt,
		).Scan(&listing.ID); err != nil {
			if pqErrorCode(err) == pqForeignKeyViolation {
				return ErrNotFound
			}
			return err
		}

		if contactNumber == nil {
			return nil
		}
		const contactQuery = `UPDATE users SET contact_number = $1 WHERE id = $2`
		_, err := tx.ExecContext(ctx, contactQuery, *contactNumber, listing.OwnerID)
		return err
	})
	if err != nil {
		return types.Listing{}, err
	}
	return listing, nil
}

func (r *ListingRepository) Get(ctx context.Context, id int) (types.Listing, error) {
	query := listingSelect + ` WHERE l.id = $1`
	listing, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Listing{}, ErrNotFound
		}
		return types.Listing{}, err
	}
	return listing, nil
}

// ListApproved returns approved listings in insertion order.
func (r *ListingRepository) ListApproved(ctx context.Context) ([]types.Listing, error) {
	return r.queryListings(ctx, listingSelect+` WHERE l.approved ORDER BY l.id`)
}

// ListAll returns every listing, pending ones included.
func (r *ListingRepository) ListAll(ctx context.Context) ([]types.Listing, error) {
	return r.queryListings(ctx, listingSelect+` ORDER BY l.id`)
}

// Search returns approved listings whose title and location contain the
// filter strings (case-insensitive) and whose price lies in the inclusive range.
func (r *ListingRepository) Search(ctx context.Context, filter types.ListingFilter) ([]types.Listing, error) {
	query := listingSelect + `
		WHERE l.approved
		  AND l.title ILIKE $1 ESCAPE '\'
		  AND l.location ILIKE $2 ESCAPE '\'
		  AND l.price >= $3
		  AND ($4::numeric IS NULL OR l.price <= $4::numeric)
		ORDER BY l.id`
	return r.queryListings(
		ctx,
		query,
		"%"+likeEscaper.Replace(filter.Query)+"%",
		"%"+likeEscaper.Replace(filter.Location)+"%",
		filter.MinPrice,
		filter.MaxPrice,
	)
}

// Approve marks a listing approved. Approving an approved listing succeeds.
func (r *ListingRepository) Approve(ctx context.Context, id int) error {
	const query = `UPDATE listings SET approved = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing owned by ownerID, or any listing when anyOwner is set.
func (r *ListingRepository) Delete(ctx context.Context, id, ownerID int, anyOwner bool) error {
	const query = `DELETE FROM listings WHERE id = $1 AND (owner_id = $2 OR $3)`
	result, err := r.db.ExecContext(ctx, query, id, ownerID, anyOwner)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
