package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aryanprajapat98/REMS/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, role, contact_number, password_hash, created_at`

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.ContactNumber,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user. A unique violation on email yields ErrDuplicateEmail
// and leaves the table untouched.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.CreatedAt = time.Now()

	const query = `
		INSERT INTO users (name, email, role, contact_number, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Role,
		user.ContactNumber,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		if pqErrorCode(err) == pqUniqueViolation {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}
