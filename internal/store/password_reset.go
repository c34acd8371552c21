package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aryanprajapat98/REMS/internal/db"
)

// PasswordResetRepository handles persistence for password reset tokens.
type PasswordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, email, token string) error {
	const query = `INSERT INTO password_resets (token, email, created_at) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, token, email, time.Now())
	return err
}

// Consume redeems token by setting passwordHash on the user the token was
// issued for. The token lookup, password update and token deletion run in
// one transaction with the token row locked, so a token can be redeemed at
// most once. ErrNotFound is returned when the token does not exist or no
// longer maps to a user.
func (r *PasswordResetRepository) Consume(ctx context.Context, token, passwordHash string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var email string
		const selectQuery = `SELECT email FROM password_resets WHERE token = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, selectQuery, token).Scan(&email); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		const updateQuery = `UPDATE users SET password_hash = $1 WHERE email = $2`
		result, err := tx.ExecContext(ctx, updateQuery, passwordHash, email)
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

		const deleteQuery = `DELETE FROM password_resets WHERE token = $1`
		_, err = tx.ExecContext(ctx, deleteQuery, token)
		return err
	})
}
