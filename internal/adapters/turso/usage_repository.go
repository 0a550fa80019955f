package turso

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/util"
)

// newID fills in a missing row id.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

type ToolUsageRepository struct {
	db DBTX
}

func NewToolUsageRepository(db DBTX) *ToolUsageRepository {
	return &ToolUsageRepository{db: db}
}

func (r *ToolUsageRepository) Create(ctx context.Context, usage *domain.ToolUsage) error {
	newID(&usage.ID)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tool_usage (id, session_id, timestamp, tool_name, tool_category, input_size, output_size, project_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		usage.ID,
		usage.SessionID,
		util.FormatTimestamp(usage.Timestamp),
		usage.ToolName,
		string(usage.Category),
		usage.InputSize,
		usage.OutputSize,
		usage.ProjectPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tool usage: %w", err)
	}
	return nil
}

type CommandRepository struct {
	db DBTX
}

func NewCommandRepository(db DBTX) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Create(ctx context.Context, command *domain.Command) error {
	newID(&command.ID)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO commands (id, session_id, timestamp, command, description, project_path)
		VALUES (?, ?, ?, ?, ?, ?)`,
		command.ID,
		command.SessionID,
		util.FormatTimestamp(command.Timestamp),
		command.Command,
		command.Description,
		command.ProjectPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert command: %w", err)
	}
	return nil
}

type EventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	newID(&event.ID)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, session_id, timestamp, event_type, event_data, project_path)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID,
		util.NullString(event.SessionID),
		util.FormatTimestamp(event.Timestamp),
		string(event.Kind),
		string(event.Data),
		event.ProjectPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
