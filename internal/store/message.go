package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aryanprajapat98/REMS/types"
)

// MessageRepository handles persistence for listing messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create stores a message. An unknown sender or receiver yields ErrNotFound.
func (r *MessageRepository) Create(ctx context.Context, message types.Message) (types.Message, error) {
	message.CreatedAt = time.Now()

	const query = `
		INSERT INTO messages (sender_id, receiver_id, listing_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		message.SenderID,
		message.ReceiverID,
		message.ListingID,
		message.Body,
		message.CreatedAt,
	).Scan(&message.ID); err != nil {
		if pqErrorCode(err) == pqForeignKeyViolation {
			return types.Message{}, ErrNotFound
		}
		return types.Message{}, err
	}
	return message, nil
}

// ListThread returns the messages of a listing that userID sent or received,
// oldest first, with the sender's name and contact number.
func (r *MessageRepository) ListThread(ctx context.Context, listingID, userID int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.sender_id, m.receiver_id, m.listing_id, m.body, m.created_at,
		       u.name, u.contact_number
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.listing_id = $1 AND (m.sender_id = $2 OR m.receiver_id = $2)
		ORDER BY m.created_at, m.id`
	rows, err := r.db.QueryContext(ctx, query, listingID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var message types.Message
		if err := rows.Scan(
			&message.ID,
			&message.SenderID,
			&message.ReceiverID,
			&message.ListingID,
			&message.Body,
			&message.CreatedAt,
			&message.SenderName,
			&message.SenderContact,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// CountReceived counts every message addressed to userID across all listings.
func (r *MessageRepository) CountReceived(ctx context.Context, userID int) (int, error) {
	const query = `SELECT COUNT(1) FROM messages WHERE receiver_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
