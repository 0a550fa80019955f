package ports

import (
	"context"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

type ToolUsageRepository interface {
	Create(ctx context.Context, usage *domain.ToolUsage) error
}

type CommandRepository interface {
	Create(ctx context.Context, command *domain.Command) error
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
}
