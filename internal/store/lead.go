package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aryanprajapat98/REMS/types"
)

// LeadRepository handles persistence for leads.
type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead types.Lead) (types.Lead, error) {
	lead.CreatedAt = time.Now()

	const query = `
		INSERT INTO leads (name, email, message, listing_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		lead.Name,
		lead.Email,
		lead.Message,
		lead.ListingID,
		lead.CreatedAt,
	).Scan(&lead.ID); err != nil {
		return types.Lead{}, err
	}
	return lead, nil
}

func (r *LeadRepository) List(ctx context.Context) ([]types.Lead, error) {
	const query = `
		SELECT id, name, email, message, listing_id, created_at
		FROM leads
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]types.Lead, 0)
	for rows.Next() {
		var lead types.Lead
		if err := rows.Scan(
			&lead.ID,
			&lead.Name,
			&lead.Email,
			&lead.Message,
			&lead.ListingID,
			&lead.CreatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leads, nil
}
