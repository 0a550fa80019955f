package ports

import (
	"context"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

// SessionRepository persists session lifecycle rows.
type SessionRepository interface {
	// CreateIfAbsent inserts the session unless a row with the same id
	// exists. It reports whether a row was created and never touches an
	// existing row.
	CreateIfAbsent(ctx context.Context, session *domain.Session) (bool, error)
	// GetByID returns nil, nil when no row exists.
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// UpdateEnd writes end_time and duration_seconds.
	UpdateEnd(ctx context.Context, session *domain.Session) error
}
