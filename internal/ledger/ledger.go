// Package ledger persists ownership facts in SQLite, MySQL or PostgreSQL.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations
var migrationsFS embed.FS

// sqlitePragmas are applied to every SQLite connection.
// LIKE must be case-sensitive so path prefixes behave the same on every backend.
var sqlitePragmas = []string{"foreign_keys(1)", "case_sensitive_like(1)", "busy_timeout(5000)"}

// Store implements contract.LedgerStore on top of a SQL database.
type Store struct {
	db      *sqlx.DB
	backend schema.DatabaseBackend
	logger  *logrus.Logger
}

var _ contract.LedgerStore = &Store{} // Compile-time check

// NewStore opens the ledger for the given backend and makes sure its tables exist.
// An empty SQLite connection string resolves to the default ledger file.
func NewStore(backend schema.DatabaseBackend, connStr string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	db, err := openDB(backend, connStr, false)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Check that the directory of the database file is writable."
		}
		return nil, fmt.Errorf("%w: failed to connect to %s database: %v. %s", contract.ErrStorageUnavailable, backend, err, connDetail)
	}

	if err := createLedgerTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create ledger tables: %w", err)
	}

	logger.WithFields(logrus.Fields{"backend": backend}).Debug("ledger store opened")
	return &Store{db: db, backend: backend, logger: logger}, nil
}

// openDB opens a connection pool for the backend without verifying it.
// multiStatements is needed by the MySQL migration driver, which sends whole files at once.
func openDB(backend schema.DatabaseBackend, connStr string, multiStatements bool) (*sqlx.DB, error) {
	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetLedgerDBFilePath()
		}
		db, err := sqlx.Open(DriverName(backend), sqliteDSN(dbPath))
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dbPath, err)
		}
		// A single connection avoids "database is locked" errors and keeps :memory: databases alive
		db.SetMaxOpenConns(1)
		return db, nil

	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse MySQL connection string: %w. Check connection string format: user:password@tcp(host:port)/dbname", err)
		}
		cfg.MultiStatements = multiStatements
		db, err := sqlx.Open(DriverName(backend), cfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open MySQL database: %w", err)
		}
		return db, nil

	case schema.PostgreSQLBackend:
		db, err := sqlx.Open(DriverName(backend), connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=...", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// DriverName returns the database/sql driver registered for backend.
func DriverName(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "mysql"
	case schema.PostgreSQLBackend:
		return "pgx"
	default: // SQLite
		return "sqlite"
	}
}

// sqliteDSN appends the connection pragmas to a SQLite path.
func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// migrationDir returns the embedded migration directory of a backend.
func migrationDir(backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return "migrations/mysql"
	case schema.PostgreSQLBackend:
		return "migrations/postgres"
	default: // SQLite
		return "migrations/sqlite"
	}
}

// createLedgerTables applies the initial schema statement by statement.
// Every statement is guarded with IF NOT EXISTS, so this is safe on a migrated database.
func createLedgerTables(db *sqlx.DB, backend schema.DatabaseBackend) error {
	ddl, err := migrationsFS.ReadFile(migrationDir(backend) + "/0001_init.up.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	for _, stmt := range splitStatements(string(ddl)) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// splitStatements splits a SQL script on semicolons, dropping comments and blanks.
func splitStatements(script string) []string {
	var lines []string
	for line := range strings.SplitSeq(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	var stmts []string
	for stmt := range strings.SplitSeq(strings.Join(lines, "\n"), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// Backend returns the database backend of the store.
func (s *Store) Backend() schema.DatabaseBackend {
	return s.backend
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// inTx runs fn inside one transaction. Nothing fn wrote is visible unless it returns nil.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapStorageErr(op+": begin", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return wrapStorageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return wrapStorageErr(op+": commit", err)
	}
	return nil
}

// rowExists runs a COUNT query and reports whether it matched anything.
func rowExists(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (bool, error) {
	var n int64
	if err := sqlx.GetContext(ctx, q, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

// getOptional runs a single-row query and reports false instead of sql.ErrNoRows.
func getOptional(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
