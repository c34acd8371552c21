package types

import "time"

// Listing represents a property offered on the marketplace.
// Only approved listings are visible to the public.
type Listing struct {
	// ID is the unique identifier of the listing.
	ID int `json:"id" db:"id"`

	// Title is the headline shown in listing results.
	Title string `json:"title" db:"title"`

	// Price is the asking price. It is never negative.
	Price float64 `json:"price" db:"price"`

	// Location is a free-form address or area name.
	Location string `json:"location" db:"location"`

	// Description is the full listing text.
	Description string `json:"description" db:"description"`

	// ImageKey is the opaque object storage key of the listing image, if any.
	ImageKey *string `json:"image_key,omitempty" db:"image_key"`

	// OwnerID is the user who created the listing.
	OwnerID int `json:"owner_id" db:"owner_id"`

	// Approved controls public visibility.
	Approved bool `json:"approved" db:"approved"`

	Bedrooms  *int     `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms *int     `json:"bathrooms,omitempty" db:"bathrooms"`
	Area      *float64 `json:"area,omitempty" db:"area"`

	// Amenities is free text, e.g. "parking, pool".
	Amenities string `json:"amenities" db:"amenities"`

	// OwnerContact is the owner's contact number, joined in on read.
	OwnerContact *string `json:"owner_contact,omitempty" db:"owner_contact"`

	// CreatedAt is the timestamp at which the listing was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ListingFilter describes a search over approved listings.
// Empty strings match everything; a nil MaxPrice means no upper bound.
type ListingFilter struct {
	Query    string
	Location string
	MinPrice float64
	MaxPrice *float64
}

// Dashboard aggregates the data shown to administrators.
type Dashboard struct {
	UsersCount    int       `json:"users_count"`
	ListingsCount int       `json:"listings_count"`
	LeadsCount    int       `json:"leads_count"`
	Users         []User    `json:"users"`
	Listings      []Listing `json:"listings"`
}
