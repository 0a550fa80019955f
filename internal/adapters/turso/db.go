package turso

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
	"github.com/emiliopalmerini/usagetrack/internal/migrate"
	"github.com/emiliopalmerini/usagetrack/internal/ports"
)

const driverName = "libsql"

// connPragmas are applied on every InitSchema. busy_timeout comes first:
// every later statement may meet a lock held by another hook process and
// must wait for it rather than fail.
var connPragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
}

// walPragma is persistent in the database file, so it only runs on the
// migration path, after busy_timeout is set.
const walPragma = "PRAGMA journal_mode = WAL"

// Store is the libsql-backed durable store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database file at path. It does not
// touch the schema; call InitSchema before writing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %w", domain.ErrStorageUnavailable, err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", domain.ErrStorageUnavailable, err)
	}

	// SQLite has one writer at a time; a single connection per process
	// keeps the pragmas and the explicit transactions on the same handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, path: path}, nil
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InitSchema applies the connection pragmas and any pending migrations.
// When the schema is already current it only reads the version, so it is
// cheap to run on every hook invocation.
func (s *Store) InitSchema(ctx context.Context) error {
	if err := applyPragmas(ctx, s.db, connPragmas...); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	latest, err := migrate.LatestVersion()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if current, err := migrate.CurrentVersion(ctx, s.db); err == nil && current >= latest {
		return nil
	}

	// journal_mode cannot change inside a transaction.
	if err := applyPragmas(ctx, s.db, walPragma); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}

	// Re-checked under the write lock: a concurrent invocation may have
	// migrated in the meantime.
	err = s.immediate(ctx, func(conn migrate.DBTX) error {
		_, err := migrate.RunAll(ctx, conn)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: failed to initialize schema: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return migrate.CurrentVersion(ctx, s.db)
}

// WithinTx runs fn in a write transaction. The transaction is started with
// BEGIN IMMEDIATE so the write lock is taken up front and conflicting
// invocations wait on busy_timeout rather than failing mid-transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repos *ports.Repositories) error) error {
	return s.immediate(ctx, func(conn migrate.DBTX) error {
		return fn(NewRepositories(conn))
	})
}

func (s *Store) immediate(ctx context.Context, fn func(conn migrate.DBTX) error) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to acquire connection: %w", domain.ErrStorageUnavailable, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrStorageUnavailable, err)
	}

	rollback := func() {
		_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(conn); err != nil {
		rollback()
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		rollback()
		return fmt.Errorf("%w: failed to commit transaction: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func applyPragmas(ctx context.Context, db *sql.DB, pragmas ...string) error {
	for _, pragma := range pragmas {
		// Some pragmas answer with a row, so run them as queries.
		rows, err := db.QueryContext(ctx, pragma)
		if err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
		_ = rows.Close()
	}
	return nil
}
