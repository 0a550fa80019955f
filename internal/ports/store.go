package ports

import "context"

// Repositories groups the table repositories bound to one unit of work.
type Repositories struct {
	Sessions  SessionRepository
	ToolUsage ToolUsageRepository
	Commands  CommandRepository
	Events    EventRepository
}

// Store is the durable store shared by every hook invocation.
type Store interface {
	// InitSchema creates any missing tables. Safe to call on every run.
	InitSchema(ctx context.Context) error
	// WithinTx runs fn against repositories bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	WithinTx(ctx context.Context, fn func(repos *Repositories) error) error
	Close() error
}
