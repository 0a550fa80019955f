package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/usagetrack/internal/adapters/turso"
)

type testEnv struct {
	dbPath string
	logDir string
}

// setupEnv points the tracker at a temp database and backup directory.
func setupEnv(t *testing.T) testEnv {
	t.Helper()

	dir := t.TempDir()
	env := testEnv{
		dbPath: filepath.Join(dir, "usage-tracking.db"),
		logDir: filepath.Join(dir, "usage-logs"),
	}
	t.Setenv("USAGETRACK_DB_PATH", env.dbPath)
	t.Setenv("USAGETRACK_LOG_DIR", env.logDir)
	t.Setenv("USAGETRACK_LOG_LEVEL", "debug")
	t.Setenv("USAGETRACK_OTEL_ENABLED", "false")
	t.Setenv("CLAUDE_HOOK_TYPE", "")
	return env
}

func (e testEnv) countRows(t *testing.T, table string) int {
	t.Helper()

	store, err := turso.Open(e.dbPath)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.InitSchema(context.Background()))

	var n int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (e testEnv) backupLines(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(e.logDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var lines []string
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(e.logDir, entry.Name()))
		require.NoError(t, err)
		for _, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
			if len(line) > 0 {
				lines = append(lines, string(line))
			}
		}
	}
	return lines
}

// runHookWithInput runs the hook command with input on stdin and returns
// what it wrote to stdout.
func runHookWithInput(t *testing.T, input string) (string, error) {
	t.Helper()

	oldStdin := os.Stdin
	defer func() { os.Stdin = oldStdin }()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdin = r
	go func() {
		_, _ = w.Write([]byte(input))
		_ = w.Close()
	}()

	oldStdout := os.Stdout
	rOut, wOut, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = wOut

	hookErr := runHook(nil, nil)

	_ = wOut.Close()
	os.Stdout = oldStdout
	var stdout bytes.Buffer
	_, _ = stdout.ReadFrom(rOut)

	return stdout.String(), hookErr
}
