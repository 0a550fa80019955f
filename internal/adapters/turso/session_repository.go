package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/util"
)

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateIfAbsent(ctx context.Context, session *domain.Session) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, project_path, start_time, end_time, duration_seconds, transcript_path)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		session.ID,
		session.ProjectPath,
		util.FormatTimestamp(session.StartTime),
		util.NullTimestamp(session.EndTime),
		util.NullInt64(session.DurationSeconds),
		session.TranscriptPath,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var (
		projectPath, transcriptPath sql.NullString
		startTime                   string
		endTime                     sql.NullString
		duration                    sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT project_path, start_time, end_time, duration_seconds, transcript_path
		FROM sessions WHERE session_id = ?`, id,
	).Scan(&projectPath, &startTime, &endTime, &duration, &transcriptPath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	start, err := util.ParseTimestamp(startTime)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	end, err := util.NullTimestampToPtr(endTime)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	return &domain.Session{
		ID:              id,
		ProjectPath:     util.NullStringValue(projectPath),
		TranscriptPath:  util.NullStringValue(transcriptPath),
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: util.NullInt64ToPtr(duration),
	}, nil
}

func (r *SessionRepository) UpdateEnd(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET end_time = ?, duration_seconds = ?
		WHERE session_id = ?`,
		util.NullTimestamp(session.EndTime),
		util.NullInt64(session.DurationSeconds),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session end: %w", err)
	}
	return nil
}
