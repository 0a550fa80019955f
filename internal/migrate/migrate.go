package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Migration represents a single schema migration.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

// LoadMigrations reads all embedded migration files and returns them sorted by version.
func LoadMigrations() ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(migrationsFS, "sql", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := upPattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return fmt.Errorf("invalid migration version in %s: %w", p, err)
		}

		upSQL, err := fs.ReadFile(migrationsFS, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		result = append(result, Migration{
			Version: version,
			Name:    matches[2],
			UpSQL:   string(upSQL),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})

	return result, nil
}

// LatestVersion returns the highest version among the embedded migrations.
func LatestVersion() (int, error) {
	all, err := LoadMigrations()
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}
	return all[len(all)-1].Version, nil
}

// EnsureMigrationsTable creates the schema_migrations table if it doesn't exist.
func EnsureMigrationsTable(ctx context.Context, db DBTX) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

// CurrentVersion returns the highest applied migration version, or 0.
// It fails if the schema_migrations table does not exist.
func CurrentVersion(ctx context.Context, db DBTX) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Apply executes one migration and records its version. Callers provide
// the transaction.
func Apply(ctx context.Context, db DBTX, m Migration) error {
	for _, stmt := range SplitSQL(m.UpSQL) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d_%s: %w\nSQL: %s", m.Version, m.Name, err, stmt)
		}
	}

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		m.Version, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}
	return nil
}

// SplitSQL splits a SQL script by semicolons, dropping empty statements.
func SplitSQL(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// RunAll applies every pending migration and returns how many ran. It is
// idempotent: with the schema current it only reads the version.
func RunAll(ctx context.Context, db DBTX) (int, error) {
	if err := EnsureMigrationsTable(ctx, db); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := CurrentVersion(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	allMigrations, err := LoadMigrations()
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	applied := 0
	for _, m := range allMigrations {
		if m.Version <= currentVersion {
			continue
		}
		if err := Apply(ctx, db, m); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}
