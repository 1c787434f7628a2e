package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

var (
	_ ports.SessionRepository = (*DB)(nil)
	_ ports.SessionPurger     = (*DB)(nil)
)

func (db *DB) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)
    `, s.ID, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}

func (db *DB) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := db.Pool.QueryRow(ctx, `
        SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = $1
    `, id).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	return s, err
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// PurgeExpiredSessions deletes sessions that expired before the given instant.
func (db *DB) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
