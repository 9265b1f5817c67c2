package ledger

import (
	"fmt"
	"strings"

	"github.com/huangsam/blameledger/schema"
)

// likeEscape is the escape character used by every prefix LIKE.
const likeEscape = "!"

// prefixPattern turns a literal path prefix into a LIKE pattern.
// An empty prefix matches every path.
func prefixPattern(prefix string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(prefix) + "%"
}

// quoteTableName quotes a table name for the backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// placeholders returns n comma-separated "?" markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// getUpsertQuery returns an INSERT that replaces the update columns when the key already exists.
func getUpsertQuery(backend schema.DatabaseBackend, table string, cols, keys, updates []string) string {
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders(len(cols)))

	switch backend {
	case schema.MySQLBackend:
		sets := make([]string, len(updates))
		for i, u := range updates {
			sets[i] = fmt.Sprintf("%s = new.%s", u, u)
		}
		return fmt.Sprintf("%s AS new ON DUPLICATE KEY UPDATE %s", insert, strings.Join(sets, ", "))

	default: // SQLite and PostgreSQL
		sets := make([]string, len(updates))
		for i, u := range updates {
			sets[i] = fmt.Sprintf("%s = excluded.%s", u, u)
		}
		return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s", insert, strings.Join(keys, ", "), strings.Join(sets, ", "))
	}
}

// getUpsertIDQuery returns an upsert that yields the surrogate id of the row,
// whether it was inserted or already present. MySQL reports it via LAST_INSERT_ID.
func getUpsertIDQuery(backend schema.DatabaseBackend, table string, cols, keys, updates []string) string {
	if len(updates) == 0 {
		// A no-op update still lets the statement return the existing row
		updates = keys[len(keys)-1:]
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders(len(cols)))

	switch backend {
	case schema.MySQLBackend:
		sets := []string{fmt.Sprintf("id = LAST_INSERT_ID(%s.id)", table)}
		for _, u := range updates {
			sets = append(sets, fmt.Sprintf("%s = new.%s", u, u))
		}
		return fmt.Sprintf("%s AS new ON DUPLICATE KEY UPDATE %s", insert, strings.Join(sets, ", "))

	default: // SQLite and PostgreSQL
		return getUpsertQuery(backend, table, cols, keys, updates) + " RETURNING id"
	}
}

// getInsertIfAbsentQuery returns an INSERT that silently skips rows whose key exists.
// MySQL uses a self-assignment instead of INSERT IGNORE so foreign key errors still surface.
func getInsertIfAbsentQuery(backend schema.DatabaseBackend, table string, cols, keys []string) string {
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders(len(cols)))

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("%s ON DUPLICATE KEY UPDATE %s = %s", insert, keys[0], keys[0])
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("%s ON CONFLICT (%s) DO NOTHING", insert, strings.Join(keys, ", "))
	}
}

// sumExpr returns a zero-defaulted integer SUM. PostgreSQL widens SUM(bigint) to numeric.
func sumExpr(backend schema.DatabaseBackend, expr string) string {
	switch backend {
	case schema.PostgreSQLBackend:
		return fmt.Sprintf("CAST(COALESCE(SUM(%s), 0) AS BIGINT)", expr)
	default: // SQLite and MySQL
		return fmt.Sprintf("COALESCE(SUM(%s), 0)", expr)
	}
}
