package ports

import (
	"context"

	"labelcheck/internal/domain"
)

// UserRepository stores users keyed by normalized email.
type UserRepository interface {
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
}

// SessionRepository stores opaque session ids with an expiry.
type SessionRepository interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// ReportRepository persists saved reports. Every read and delete is scoped to an owner.
type ReportRepository interface {
	InsertReport(ctx context.Context, r domain.SavedReport) (domain.SavedReport, error)
	ListReports(ctx context.Context, ownerID int64, limit int) ([]domain.SavedReport, error)
	GetReport(ctx context.Context, ownerID int64, externalID string) (domain.SavedReport, error)
	DeleteReport(ctx context.Context, ownerID int64, externalID string) error
}
