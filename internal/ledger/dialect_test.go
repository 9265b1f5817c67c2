package ledger

import (
	"testing"

	"github.com/huangsam/blameledger/schema"
	"github.com/stretchr/testify/assert"
)

func TestPrefixPattern(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"", "%"},
		{"src/", "src/%"},
		{"a_b", "a!_b%"},
		{"100%", "100!%%"},
		{"wow!", "wow!!%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, prefixPattern(tt.prefix), "prefix %q", tt.prefix)
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`ownership`", quoteTableName("ownership", schema.MySQLBackend))
	assert.Equal(t, `"ownership"`, quoteTableName("ownership", schema.PostgreSQLBackend))
	assert.Equal(t, `"ownership"`, quoteTableName("ownership", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestGetUpsertQuery(t *testing.T) {
	cols := []string{"project_id", "author_id", "line_map"}
	keys := []string{"project_id", "author_id"}
	updates := []string{"line_map"}

	assert.Equal(t,
		"INSERT INTO ownership (project_id, author_id, line_map) VALUES (?, ?, ?) ON CONFLICT (project_id, author_id) DO UPDATE SET line_map = excluded.line_map",
		getUpsertQuery(schema.SQLiteBackend, "ownership", cols, keys, updates))
	assert.Equal(t,
		getUpsertQuery(schema.SQLiteBackend, "ownership", cols, keys, updates),
		getUpsertQuery(schema.PostgreSQLBackend, "ownership", cols, keys, updates))
	assert.Equal(t,
		"INSERT INTO ownership (project_id, author_id, line_map) VALUES (?, ?, ?) AS new ON DUPLICATE KEY UPDATE line_map = new.line_map",
		getUpsertQuery(schema.MySQLBackend, "ownership", cols, keys, updates))
}

func TestGetUpsertIDQuery(t *testing.T) {
	cols := []string{"name", "root_path"}

	assert.Equal(t,
		"INSERT INTO projects (name, root_path) VALUES (?, ?) ON CONFLICT (name, root_path) DO UPDATE SET root_path = excluded.root_path RETURNING id",
		getUpsertIDQuery(schema.PostgreSQLBackend, "projects", cols, cols, nil))
	assert.Equal(t,
		"INSERT INTO projects (name, root_path) VALUES (?, ?) AS new ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(projects.id), root_path = new.root_path",
		getUpsertIDQuery(schema.MySQLBackend, "projects", cols, cols, nil))
}

func TestGetInsertIfAbsentQuery(t *testing.T) {
	cols := []string{"project_id", "hash"}
	keys := []string{"project_id", "hash"}

	assert.Equal(t,
		"INSERT INTO commits (project_id, hash) VALUES (?, ?) ON CONFLICT (project_id, hash) DO NOTHING",
		getInsertIfAbsentQuery(schema.SQLiteBackend, "commits", cols, keys))
	assert.Equal(t,
		"INSERT INTO commits (project_id, hash) VALUES (?, ?) ON DUPLICATE KEY UPDATE project_id = project_id",
		getInsertIfAbsentQuery(schema.MySQLBackend, "commits", cols, keys))
}

func TestSumExpr(t *testing.T) {
	assert.Equal(t, "COALESCE(SUM(o.line_size), 0)", sumExpr(schema.SQLiteBackend, "o.line_size"))
	assert.Equal(t, "COALESCE(SUM(o.line_size), 0)", sumExpr(schema.MySQLBackend, "o.line_size"))
	assert.Equal(t, "CAST(COALESCE(SUM(o.line_size), 0) AS BIGINT)", sumExpr(schema.PostgreSQLBackend, "o.line_size"))
}
