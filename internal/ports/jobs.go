package ports

import (
	"context"
	"time"
)

// SessionPurger removes sessions that expired before the given instant.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, before time.Time) (removed int64, err error)
}
