package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

var (
	_ ports.UserRepository   = (*DB)(nil)
	_ ports.ReportRepository = (*DB)(nil)
)

const uniqueViolation = "23505"

// UserRepository
func (db *DB) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO users (email, password_hash, name, company, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `, u.Email, u.PasswordHash, u.Name, u.Company, u.CreatedAt).Scan(&u.ID, &u.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.User{}, domain.ErrEmailAlreadyRegistered
	}
	return u, err
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return db.getUser(ctx, `WHERE email = $1`, email)
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return db.getUser(ctx, `WHERE id = $1`, id)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (domain.User, error) {
	var u domain.User
	err := db.Pool.QueryRow(ctx, `
        SELECT id, email, password_hash, name, company, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Company, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

// ReportRepository
func (db *DB) InsertReport(ctx context.Context, r domain.SavedReport) (domain.SavedReport, error) {
	body, err := json.Marshal(r.Record)
	if err != nil {
		return domain.SavedReport{}, fmt.Errorf("encode record: %w", err)
	}
	err = db.Pool.QueryRow(ctx, `
        INSERT INTO reports (owner_id, external_id, title, record, language, score, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `, r.OwnerID, r.ExternalID, r.Title, body, string(r.Language), r.Score, r.CreatedAt).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return domain.SavedReport{}, err
	}
	return r, nil
}

func (db *DB) ListReports(ctx context.Context, ownerID int64, limit int) ([]domain.SavedReport, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, external_id, owner_id, title, record, language, score, created_at
        FROM reports
        WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SavedReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (db *DB) GetReport(ctx context.Context, ownerID int64, externalID string) (domain.SavedReport, error) {
	row := db.Pool.QueryRow(ctx, `
        SELECT id, external_id, owner_id, title, record, language, score, created_at
        FROM reports
        WHERE owner_id = $1 AND external_id = $2
    `, ownerID, externalID)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SavedReport{}, domain.ErrNotFound
	}
	return r, err
}

func (db *DB) DeleteReport(ctx context.Context, ownerID int64, externalID string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM reports WHERE owner_id = $1 AND external_id = $2`, ownerID, externalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (domain.SavedReport, error) {
	var (
		r    domain.SavedReport
		body []byte
		lang string
	)
	if err := row.Scan(&r.ID, &r.ExternalID, &r.OwnerID, &r.Title, &body, &lang, &r.Score, &r.CreatedAt); err != nil {
		return domain.SavedReport{}, err
	}
	if err := json.Unmarshal(body, &r.Record); err != nil {
		return domain.SavedReport{}, fmt.Errorf("decode record %s: %w", r.ExternalID, err)
	}
	r.Language = domain.Language(lang)
	return r, nil
}
