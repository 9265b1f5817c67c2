package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/blameledger/internal/codec"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var ownershipColumns = []string{"project_id", "author_id", "blame_target_id", "line_map", "line_count", "line_size"}

// ownershipRow is an ownership row as stored, with its line map still encoded.
type ownershipRow struct {
	ProjectID     int64  `db:"project_id"`
	AuthorID      int64  `db:"author_id"`
	BlameTargetID int64  `db:"blame_target_id"`
	LineMap       string `db:"line_map"`
	LineCount     int    `db:"line_count"`
	LineSize      int64  `db:"line_size"`
}

func ownershipKey(k schema.OwnershipKey) string {
	return fmt.Sprintf("ownership %d/%d/%d", k.ProjectID, k.AuthorID, k.BlameTargetID)
}

func (r ownershipRow) decode() (schema.OwnershipRecord, error) {
	hashes, lineIDs, err := codec.DecodeLineMap(r.LineMap)
	if err != nil {
		key := schema.OwnershipKey{ProjectID: r.ProjectID, AuthorID: r.AuthorID, BlameTargetID: r.BlameTargetID}
		return schema.OwnershipRecord{}, contract.NewRecordError(contract.ErrEncoding, ownershipKey(key), err)
	}
	if len(lineIDs) != r.LineCount {
		key := schema.OwnershipKey{ProjectID: r.ProjectID, AuthorID: r.AuthorID, BlameTargetID: r.BlameTargetID}
		return schema.OwnershipRecord{}, contract.NewRecordError(contract.ErrEncoding, ownershipKey(key),
			fmt.Errorf("line map holds %d lines, line_count is %d", len(lineIDs), r.LineCount))
	}
	return schema.OwnershipRecord{
		ProjectID:     r.ProjectID,
		AuthorID:      r.AuthorID,
		BlameTargetID: r.BlameTargetID,
		CommitHashes:  hashes,
		LineIDs:       lineIDs,
		LineSize:      r.LineSize,
	}, nil
}

// ResolveBlameTarget returns the file-state (projectID, filePath, fileHash), creating it if absent.
func (s *Store) ResolveBlameTarget(ctx context.Context, projectID int64, filePath, fileHash string) (schema.BlameTarget, error) {
	key := fmt.Sprintf("blame target %d/%s@%s", projectID, filePath, fileHash)
	if filePath == "" || fileHash == "" {
		return schema.BlameTarget{}, contract.NewRecordError(contract.ErrConflict, key, errors.New("file path and file hash are required"))
	}

	cols := []string{"project_id", "file_path", "file_hash"}
	query := getUpsertIDQuery(s.backend, schema.BlameTargetsTable, cols, cols, nil)

	var id int64
	err := s.withRetry(ctx, "resolve blame target", func() error {
		var err error
		id, err = s.upsertID(ctx, s.db, query, projectID, filePath, fileHash)
		return err
	})
	if err != nil {
		return schema.BlameTarget{}, recordErr("resolve blame target", key, err)
	}
	return s.GetBlameTarget(ctx, id)
}

// GetBlameTarget loads a file-state by id.
func (s *Store) GetBlameTarget(ctx context.Context, blameTargetID int64) (schema.BlameTarget, error) {
	var target schema.BlameTarget
	query := s.db.Rebind("SELECT id, project_id, file_path, file_hash, total_line_size FROM blame_targets WHERE id = ?")
	found, err := getOptional(ctx, s.db, &target, query, blameTargetID)
	if err != nil {
		return schema.BlameTarget{}, wrapStorageErr("get blame target", err)
	}
	if !found {
		return schema.BlameTarget{}, contract.NewRecordError(contract.ErrNotFound, fmt.Sprintf("blame target %d", blameTargetID), nil)
	}
	return target, nil
}

// WriteOwnership upserts a batch of ownership records in one transaction.
// Each record replaces the row sharing its key. When several records of the
// batch share a key, only the last is written and the others count as skipped.
// Records that cannot be encoded or that reference an unknown author or target
// are rejected and reported. The size of every touched target is recomputed
// before the batch commits.
func (s *Store) WriteOwnership(ctx context.Context, records []schema.OwnershipRecord) (schema.BatchReport, error) {
	report := schema.BatchReport{Submitted: len(records)}
	if len(records) == 0 {
		return report, nil
	}

	query := s.db.Rebind(getUpsertQuery(s.backend, schema.OwnershipTable, ownershipColumns,
		[]string{"project_id", "author_id", "blame_target_id"},
		[]string{"line_map", "line_count", "line_size"}))

	last := make(map[schema.OwnershipKey]int, len(records))
	for i, rec := range records {
		last[rec.Key()] = i
	}

	err := s.inTx(ctx, "write ownership", func(tx *sqlx.Tx) error {
		var touched []int64
		seen := make(map[int64]struct{})

		for i, rec := range records {
			if last[rec.Key()] != i {
				report.Skipped++
				continue
			}
			key := ownershipKey(rec.Key())

			lineMap, err := codec.EncodeLineMap(rec.CommitHashes, rec.LineIDs)
			if err != nil {
				s.reject(&report, "ownership", contract.NewRecordError(contract.ErrEncoding, key, err))
				continue
			}
			if err := s.checkOwnershipRefs(ctx, tx, rec); err != nil {
				var recErr *contract.RecordError
				if errors.As(err, &recErr) {
					s.reject(&report, "ownership", recErr)
					continue
				}
				return err
			}

			if _, err := tx.ExecContext(ctx, query,
				rec.ProjectID, rec.AuthorID, rec.BlameTargetID, lineMap, rec.LineCount(), rec.LineSize); err != nil {
				return err
			}
			report.Written++

			if _, ok := seen[rec.BlameTargetID]; !ok {
				seen[rec.BlameTargetID] = struct{}{}
				touched = append(touched, rec.BlameTargetID)
			}
		}

		for _, targetID := range touched {
			if _, err := s.recomputeSize(ctx, tx, targetID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return schema.BatchReport{Submitted: len(records)}, err
	}

	s.logBatch("ownership", report)
	return report, nil
}

// checkOwnershipRefs verifies that the author and the target exist within the record's project.
func (s *Store) checkOwnershipRefs(ctx context.Context, q sqlx.QueryerContext, rec schema.OwnershipRecord) error {
	key := ownershipKey(rec.Key())

	ok, err := s.authorInProject(ctx, q, rec.ProjectID, rec.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return contract.NewRecordError(contract.ErrReferentialViolation, key, fmt.Errorf("author %d is not registered", rec.AuthorID))
	}

	query := s.db.Rebind("SELECT COUNT(*) FROM blame_targets WHERE id = ? AND project_id = ?")
	ok, err = rowExists(ctx, q, query, rec.BlameTargetID, rec.ProjectID)
	if err != nil {
		return err
	}
	if !ok {
		return contract.NewRecordError(contract.ErrReferentialViolation, key, fmt.Errorf("blame target %d is not registered", rec.BlameTargetID))
	}
	return nil
}

// RecomputeBlameTargetSize sets totalLineSize of a target from its current ownership rows.
// It is idempotent and safe to call redundantly.
func (s *Store) RecomputeBlameTargetSize(ctx context.Context, blameTargetID int64) (int64, error) {
	var size int64
	err := s.withRetry(ctx, "recompute blame target size", func() error {
		var err error
		size, err = s.recomputeSize(ctx, s.db, blameTargetID)
		return err
	})
	if err != nil {
		return 0, recordErr("recompute blame target size", fmt.Sprintf("blame target %d", blameTargetID), err)
	}
	return size, nil
}

// recomputeSize rewrites the derived size from scratch rather than patching it.
func (s *Store) recomputeSize(ctx context.Context, ext sqlx.ExtContext, blameTargetID int64) (int64, error) {
	update := ext.Rebind(`
		UPDATE blame_targets
		SET total_line_size = (SELECT COALESCE(SUM(o.line_size), 0) FROM ownership o WHERE o.blame_target_id = ?)
		WHERE id = ?`)
	if _, err := ext.ExecContext(ctx, update, blameTargetID, blameTargetID); err != nil {
		return 0, err
	}

	var size int64
	found, err := getOptional(ctx, ext, &size, ext.Rebind("SELECT total_line_size FROM blame_targets WHERE id = ?"), blameTargetID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, contract.NewRecordError(contract.ErrNotFound, fmt.Sprintf("blame target %d", blameTargetID), nil)
	}

	s.logger.WithFields(logrus.Fields{"blame_target_id": blameTargetID, "total_line_size": size}).Trace("recomputed blame target size")
	return size, nil
}

// GetOwnership returns every ownership row of a target, ordered by author.
func (s *Store) GetOwnership(ctx context.Context, blameTargetID int64) ([]schema.OwnershipRecord, error) {
	query := s.db.Rebind(`
		SELECT project_id, author_id, blame_target_id, line_map, line_count, line_size
		FROM ownership WHERE blame_target_id = ? ORDER BY author_id`)

	var rows []ownershipRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, blameTargetID); err != nil {
		return nil, wrapStorageErr("get ownership", err)
	}

	records := make([]schema.OwnershipRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListOwnershipEntries returns every ownership row of a project joined with
// its author and file-state, for export.
func (s *Store) ListOwnershipEntries(ctx context.Context, projectID int64) ([]schema.OwnershipEntry, error) {
	query := s.db.Rebind(`
		SELECT t.file_path, t.file_hash, a.name AS author_name, a.email AS author_email,
			o.line_count, o.line_size, o.line_map, t.total_line_size
		FROM ownership o
		JOIN blame_targets t ON t.id = o.blame_target_id
		JOIN authors a ON a.id = o.author_id
		WHERE o.project_id = ?
		ORDER BY t.file_path, t.file_hash, a.email`)

	var entries []schema.OwnershipEntry
	if err := sqlx.SelectContext(ctx, s.db, &entries, query, projectID); err != nil {
		return nil, wrapStorageErr("list ownership entries", err)
	}
	return entries, nil
}
