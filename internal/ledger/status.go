package ledger

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/blameledger/schema"
)

// GetStatus returns row counts for every ledger table.
func (s *Store) GetStatus(ctx context.Context) (schema.LedgerStatus, error) {
	status := schema.LedgerStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}
	if err := s.db.PingContext(ctx); err != nil {
		status.Connected = false
		return status, wrapStorageErr("ping", err)
	}

	for _, table := range schema.AllTables {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend))
		if err := s.db.GetContext(ctx, &count, query); err != nil {
			return status, wrapStorageErr("count "+table, err)
		}
		status.TableSizes[table] = count
	}
	status.Projects = int(status.TableSizes[schema.ProjectsTable])
	return status, nil
}

// PrintLedgerStatus prints ledger status information.
func PrintLedgerStatus(w io.Writer, status schema.LedgerStatus) {
	_, _ = fmt.Fprintf(w, "Ledger Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Projects: %d\n", status.Projects)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range schema.AllTables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
