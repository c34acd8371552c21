package types

import "time"

// Lead is an inbound interest record for a listing. Leads are append-only
// and visible to administrators only.
type Lead struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
	ListingID int       `json:"listing_id" db:"listing_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
