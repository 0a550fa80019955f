package otel

import (
	"context"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordEvent(ctx context.Context, kind domain.HookKind) {}

func (e *NoOpExporter) RecordToolUsage(ctx context.Context, toolName string, category domain.ToolCategory) {
}

func (e *NoOpExporter) RecordSessionClosed(ctx context.Context, session *domain.Session) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
