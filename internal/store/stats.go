package store

import (
	"context"
	"database/sql"
)

// StatsRepository reads aggregate counts for the admin dashboard.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns the number of users, listings and leads.
func (r *StatsRepository) Counts(ctx context.Context) (users, listings, leads int, err error) {
	const query = `
		SELECT (SELECT COUNT(1) FROM users),
		       (SELECT COUNT(1) FROM listings),
		       (SELECT COUNT(1) FROM leads)`
	err = r.db.QueryRowContext(ctx, query).Scan(&users, &listings, &leads)
	return users, listings, leads, err
}
