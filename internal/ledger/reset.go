package ledger

import (
	"context"
	"fmt"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// resetOrder lists tables children first so foreign keys never block a delete.
var resetOrder = []string{
	schema.OwnershipTable,
	schema.BlameTargetsTable,
	schema.ChangesTable,
	schema.FileRevisionsTable,
	schema.CommitsTable,
	schema.AuthorsTable,
}

// ResetProject deletes every fact of one project, and the project itself, in one transaction.
func (s *Store) ResetProject(ctx context.Context, projectID int64) error {
	deleted := make(logrus.Fields)
	err := s.inTx(ctx, "reset project", func(tx *sqlx.Tx) error {
		for _, table := range resetOrder {
			query := tx.Rebind(fmt.Sprintf("DELETE FROM %s WHERE project_id = ?", quoteTableName(table, s.backend)))
			res, err := tx.ExecContext(ctx, query, projectID)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			deleted[table] = n
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM projects WHERE id = ?"), projectID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return contract.NewRecordError(contract.ErrNotFound, fmt.Sprintf("project %d", projectID), nil)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(deleted).WithField("project_id", projectID).Info("project reset")
	return nil
}
