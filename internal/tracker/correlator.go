package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/ports"
)

// Correlator maps the session id carried by each hook onto one session
// row: opened by the first tool event, closed by a termination event.
type Correlator struct{}

// EnsureOpen creates the session row when it does not exist yet. An
// existing row is left untouched, closed or not. The result reports
// whether a row was created.
func (Correlator) EnsureOpen(ctx context.Context, sessions ports.SessionRepository, session domain.Session) (bool, error) {
	created, err := sessions.CreateIfAbsent(ctx, &session)
	if err != nil {
		return false, fmt.Errorf("open session %s: %w", session.ID, err)
	}
	return created, nil
}

// Close stamps end time and duration on the session. An unknown session id
// is a no-op and returns nil. A session closed twice keeps the latest close.
func (Correlator) Close(ctx context.Context, sessions ports.SessionRepository, id string, now time.Time) (*domain.Session, error) {
	session, err := sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	if session == nil {
		return nil, nil
	}

	session.Close(now)
	if err := sessions.UpdateEnd(ctx, session); err != nil {
		return nil, fmt.Errorf("close session %s: %w", id, err)
	}
	return session, nil
}
