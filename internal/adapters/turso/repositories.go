package turso

import (
	"github.com/emiliopalmerini/usagetrack/internal/migrate"
	"github.com/emiliopalmerini/usagetrack/internal/ports"
)

// DBTX is the query surface shared by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX = migrate.DBTX

// NewRepositories binds every table repository to db, which may be a
// connection inside an open transaction.
func NewRepositories(db DBTX) *ports.Repositories {
	return &ports.Repositories{
		Sessions:  NewSessionRepository(db),
		ToolUsage: NewToolUsageRepository(db),
		Commands:  NewCommandRepository(db),
		Events:    NewEventRepository(db),
	}
}
