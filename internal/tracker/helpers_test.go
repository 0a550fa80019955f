package tracker_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/usagetrack/internal/adapters/turso"
	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/tracker"
)

type memoryBackup struct {
	mu      sync.Mutex
	records []domain.BackupRecord
	err     error
}

func (b *memoryBackup) Append(ctx context.Context, record domain.BackupRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, record)
	return nil
}

func (b *memoryBackup) Records() []domain.BackupRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.BackupRecord(nil), b.records...)
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func openStore(t *testing.T) *turso.Store {
	t.Helper()

	store, err := turso.Open(filepath.Join(t.TempDir(), "usage-tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newIngestor(store *turso.Store, backup *memoryBackup, c *clock, hint string) *tracker.Ingestor {
	opts := tracker.Options{
		Backup:      backup,
		Hint:        hint,
		ProjectPath: "/work/project",
		Now:         c.Now,
	}
	if store != nil {
		opts.Store = store
	}
	return tracker.NewIngestor(opts)
}

func countRows(t *testing.T, store *turso.Store, table string) int {
	t.Helper()

	var n int
	err := store.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	require.NoError(t, err)
	return n
}

func newIngestorWithProject(backup *memoryBackup, c *clock, project string) *tracker.Ingestor {
	return tracker.NewIngestor(tracker.Options{
		Backup:      backup,
		ProjectPath: project,
		Now:         c.Now,
	})
}
