package types

import "time"

// Message is a direct message about a listing between a sender and a receiver.
type Message struct {
	ID         int       `json:"id" db:"id"`
	SenderID   int       `json:"sender_id" db:"sender_id"`
	ReceiverID int       `json:"receiver_id" db:"receiver_id"`
	ListingID  int       `json:"listing_id" db:"listing_id"`
	Body       string    `json:"body" db:"body"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// SenderName and SenderContact are joined in when a thread is listed.
	SenderName    string  `json:"sender_name,omitempty" db:"sender_name"`
	SenderContact *string `json:"sender_contact,omitempty" db:"sender_contact"`
}
