package ports

import (
	"context"

	"labelcheck/internal/domain"
)

// Media is one input artifact handed to the model.
type Media struct {
	MIMEType string
	Data     []byte
}

// Artifact is an uploaded file spooled to disk for the lifetime of a request.
type Artifact struct {
	Name     string
	Path     string
	MIMEType string
	Size     int64
}

// ModelClient invokes the external multimodal model and returns its raw text.
type ModelClient interface {
	Generate(ctx context.Context, prompt string, media []Media) (string, error)
}

// Auth manages users and sessions.
type Auth interface {
	Register(ctx context.Context, in domain.Registration) (domain.User, domain.Session, error)
	Login(ctx context.Context, email, password string) (domain.User, domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Current(ctx context.Context, sessionID string) (*domain.User, error)
}

// Reports is the owner-scoped persistence gateway. Reports are never updated.
type Reports interface {
	Save(ctx context.Context, ownerID int64, title string, lang domain.Language, rec domain.AssessmentRecord) (domain.SavedReport, error)
	List(ctx context.Context, ownerID int64, limit int) ([]domain.SavedReport, error)
	Get(ctx context.Context, ownerID int64, externalID string) (domain.SavedReport, error)
	Delete(ctx context.Context, ownerID int64, externalID string) error
}
