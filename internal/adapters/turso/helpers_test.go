package turso_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/usagetrack/internal/adapters/turso"
)

// testStore opens a file-backed database in a temp dir with the schema applied.
func testStore(t *testing.T) *turso.Store {
	t.Helper()

	store, err := turso.Open(filepath.Join(t.TempDir(), "usage-tracking.db"))
	require.NoError(t, err, "failed to open database")

	require.NoError(t, store.InitSchema(context.Background()), "failed to initialize schema")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func countRows(t *testing.T, store *turso.Store, table string) int {
	t.Helper()

	var n int
	err := store.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	require.NoError(t, err, "failed to count %s", table)
	return n
}
