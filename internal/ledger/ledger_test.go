package ledger

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens an in-memory SQLite ledger.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := NewStore(schema.SQLiteBackend, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fixture is a project with two registered authors.
type fixture struct {
	project schema.Project
	alice   schema.Author
	bob     schema.Author
}

func newFixture(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()
	project, err := s.ResolveProject(ctx, "demo", "/src/demo")
	require.NoError(t, err)
	alice, err := s.ResolveAuthor(ctx, project.ID, "Alice", "alice@example.com")
	require.NoError(t, err)
	bob, err := s.ResolveAuthor(ctx, project.ID, "Bob", "bob@example.com")
	require.NoError(t, err)
	return fixture{project: project, alice: alice, bob: bob}
}

func (f fixture) commit(hash string, author schema.Author, unix int64) schema.Commit {
	return schema.Commit{
		Hash:        hash,
		ProjectID:   f.project.ID,
		AuthorID:    author.ID,
		Timestamp:   time.Unix(unix, 0).UTC(),
		ProjectSize: unix * 100,
		Stability:   0.5,
		Files:       schema.ChangeCounts{Added: 1},
		Lines:       schema.ChangeCounts{Added: 10, Modified: 2},
		ChangeCount: 1,
	}
}

func recordCommit(t *testing.T, s *Store, c schema.Commit, paths ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.RecordCommit(ctx, c)
	require.NoError(t, err)
	revs := make([]schema.FileRevision, len(paths))
	for i, p := range paths {
		revs[i] = schema.FileRevision{ProjectID: c.ProjectID, FilePath: p, CommitHash: c.Hash, Timestamp: c.Timestamp}
	}
	report, err := s.RecordFileRevisions(ctx, revs)
	require.NoError(t, err)
	require.Empty(t, report.Rejected)
}

func TestNewStore_SQLiteTables(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, schema.SQLiteBackend, s.Backend())

	status, err := s.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Connected)
	for _, table := range schema.AllTables {
		size, ok := status.TableSizes[table]
		assert.True(t, ok, "table %s should be counted", table)
		assert.Zero(t, size)
	}
}

func TestNewStore_Unsupported(t *testing.T) {
	_, err := NewStore("oracle", "", nil)
	assert.Error(t, err)
}

func TestNewStore_BadMySQLDSN(t *testing.T) {
	_, err := NewStore(schema.MySQLBackend, "not a dsn", nil)
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t,
		"/tmp/x.db?_pragma=foreign_keys(1)&_pragma=case_sensitive_like(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("/tmp/x.db"))
	assert.Equal(t,
		"file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=case_sensitive_like(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("file:x.db?mode=rwc"))
}

func TestSplitStatements(t *testing.T) {
	script := `-- header comment
CREATE TABLE a (id INTEGER);

CREATE INDEX i ON a (id);
-- trailing
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", stmts[0])
	assert.Equal(t, "CREATE INDEX i ON a (id)", stmts[1])
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", firstLine(stmts[0]))
}

func TestMigrationDirsEmbedded(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		for _, name := range []string{"0001_init.up.sql", "0001_init.down.sql"} {
			data, err := migrationsFS.ReadFile(migrationDir(backend) + "/" + name)
			require.NoError(t, err, "%s/%s", backend, name)
			assert.NotEmpty(t, data)
		}
	}
}

func TestDriverName_Registered(t *testing.T) {
	for backend := range schema.ValidDatabaseBackends {
		assert.Contains(t, sql.Drivers(), DriverName(backend), "backend %s", backend)
	}
}
