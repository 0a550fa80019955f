package ports

import (
	"context"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

// BackupLog is the append-only, file-based copy of every hook payload.
type BackupLog interface {
	Append(ctx context.Context, record domain.BackupRecord) error
}
