package ports

import (
	"context"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

// MetricsExporter exports ingestion metrics to an external observability system.
type MetricsExporter interface {
	// RecordEvent counts one ingested hook invocation.
	RecordEvent(ctx context.Context, kind domain.HookKind)
	// RecordToolUsage counts one tool invocation by category.
	RecordToolUsage(ctx context.Context, toolName string, category domain.ToolCategory)
	// RecordSessionClosed records the duration of a session that just closed.
	RecordSessionClosed(ctx context.Context, session *domain.Session)
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
