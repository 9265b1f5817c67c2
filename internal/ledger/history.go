package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	commitColumns = []string{
		"hash", "project_id", "author_id", "committed_at", "project_size", "stability",
		"files_added", "files_deleted", "files_modified",
		"lines_added", "lines_deleted", "lines_modified", "change_count",
	}
	revisionColumns = []string{"project_id", "file_path", "commit_hash", "committed_at"}
	changeColumns   = []string{
		"project_id", "author_id", "hash", "changes_count", "changes_size",
		"lines_added", "lines_modified", "file_added", "file_deleted", "file_modified",
	}
)

// commitRow is a commit joined with its author.
type commitRow struct {
	Hash          string  `db:"hash"`
	ProjectID     int64   `db:"project_id"`
	AuthorID      int64   `db:"author_id"`
	CommittedAt   int64   `db:"committed_at"`
	ProjectSize   int64   `db:"project_size"`
	Stability     float64 `db:"stability"`
	FilesAdded    int     `db:"files_added"`
	FilesDeleted  int     `db:"files_deleted"`
	FilesModified int     `db:"files_modified"`
	LinesAdded    int     `db:"lines_added"`
	LinesDeleted  int     `db:"lines_deleted"`
	LinesModified int     `db:"lines_modified"`
	ChangeCount   int     `db:"change_count"`
	AuthorName    string  `db:"author_name"`
	AuthorEmail   string  `db:"author_email"`
}

func (r commitRow) toCommitWithAuthor() schema.CommitWithAuthor {
	return schema.CommitWithAuthor{
		Commit: schema.Commit{
			Hash:        r.Hash,
			ProjectID:   r.ProjectID,
			AuthorID:    r.AuthorID,
			Timestamp:   fromUnix(r.CommittedAt),
			ProjectSize: r.ProjectSize,
			Stability:   r.Stability,
			Files:       schema.ChangeCounts{Added: r.FilesAdded, Deleted: r.FilesDeleted, Modified: r.FilesModified},
			Lines:       schema.ChangeCounts{Added: r.LinesAdded, Deleted: r.LinesDeleted, Modified: r.LinesModified},
			ChangeCount: r.ChangeCount,
		},
		Author: schema.Author{ID: r.AuthorID, ProjectID: r.ProjectID, Name: r.AuthorName, Email: r.AuthorEmail},
	}
}

// revisionWindowRow holds both ends of a revision window read by one statement.
type revisionWindowRow struct {
	FirstHash string `db:"first_hash"`
	FirstAt   int64  `db:"first_at"`
	LastHash  string `db:"last_hash"`
	LastAt    int64  `db:"last_at"`
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func commitKey(c schema.Commit) string {
	return fmt.Sprintf("commit %d/%s", c.ProjectID, c.Hash)
}

func revisionKey(r schema.FileRevision) string {
	return fmt.Sprintf("revision %d/%s@%s", r.ProjectID, r.FilePath, r.CommitHash)
}

func changeKey(c schema.Change) string {
	return fmt.Sprintf("change %d/%d/%s", c.ProjectID, c.AuthorID, c.Hash)
}

// RecordCommit inserts the commit if absent. It returns false, not an error,
// when the commit was already recorded: commits are append-only facts.
func (s *Store) RecordCommit(ctx context.Context, c schema.Commit) (bool, error) {
	key := commitKey(c)
	if c.Hash == "" {
		return false, contract.NewRecordError(contract.ErrConflict, key, errors.New("commit hash is empty"))
	}

	query := s.db.Rebind(getInsertIfAbsentQuery(s.backend, schema.CommitsTable, commitColumns, []string{"project_id", "hash"}))
	var inserted bool
	err := s.withRetry(ctx, "record commit", func() error {
		res, err := s.db.ExecContext(ctx, query,
			c.Hash, c.ProjectID, c.AuthorID, c.Timestamp.Unix(), c.ProjectSize, c.Stability,
			c.Files.Added, c.Files.Deleted, c.Files.Modified,
			c.Lines.Added, c.Lines.Deleted, c.Lines.Modified, c.ChangeCount)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		inserted = n == 1
		return err
	})
	if err != nil {
		return false, recordErr("record commit", key, err)
	}
	return inserted, nil
}

// RecordFileRevision inserts one revision if absent, as a batch of one.
func (s *Store) RecordFileRevision(ctx context.Context, rev schema.FileRevision) (bool, error) {
	report, err := s.RecordFileRevisions(ctx, []schema.FileRevision{rev})
	if err != nil {
		return false, err
	}
	if len(report.Rejected) > 0 {
		return false, report.Rejected[0].Err
	}
	return report.Written == 1, nil
}

// RecordFileRevisions inserts a batch of revisions in one transaction.
// Revisions of unknown commits are rejected and reported; the rest commit together.
func (s *Store) RecordFileRevisions(ctx context.Context, revs []schema.FileRevision) (schema.BatchReport, error) {
	report := schema.BatchReport{Submitted: len(revs)}
	if len(revs) == 0 {
		return report, nil
	}

	err := s.inTx(ctx, "record file revisions", func(tx *sqlx.Tx) error {
		for _, rev := range revs {
			key := revisionKey(rev)
			if rev.FilePath == "" {
				s.reject(&report, "file revision", contract.NewRecordError(contract.ErrConflict, key, errors.New("file path is empty")))
				continue
			}
			committedAt, ok, err := s.commitTime(ctx, tx, rev.ProjectID, rev.CommitHash)
			if err != nil {
				return err
			}
			if !ok {
				s.reject(&report, "file revision", contract.NewRecordError(contract.ErrReferentialViolation, key, fmt.Errorf("commit %s is not recorded", rev.CommitHash)))
				continue
			}
			if rev.Timestamp.IsZero() {
				rev.Timestamp = fromUnix(committedAt)
			}
			inserted, err := s.insertRevision(ctx, tx, rev)
			if err != nil {
				return err
			}
			if inserted {
				report.Written++
			} else {
				report.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return schema.BatchReport{Submitted: len(revs)}, err
	}

	s.logBatch("file revisions", report)
	return report, nil
}

func (s *Store) insertRevision(ctx context.Context, ext sqlx.ExtContext, rev schema.FileRevision) (bool, error) {
	query := ext.Rebind(getInsertIfAbsentQuery(s.backend, schema.FileRevisionsTable, revisionColumns, []string{"project_id", "file_path", "commit_hash"}))
	res, err := ext.ExecContext(ctx, query, rev.ProjectID, rev.FilePath, rev.CommitHash, rev.Timestamp.Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// commitTime returns the timestamp of a recorded commit.
func (s *Store) commitTime(ctx context.Context, q sqlx.QueryerContext, projectID int64, hash string) (int64, bool, error) {
	var committedAt int64
	query := s.db.Rebind("SELECT committed_at FROM commits WHERE project_id = ? AND hash = ?")
	found, err := getOptional(ctx, q, &committedAt, query, projectID, hash)
	return committedAt, found, err
}

// authorInProject reports whether the author exists and belongs to the project.
func (s *Store) authorInProject(ctx context.Context, q sqlx.QueryerContext, projectID, authorID int64) (bool, error) {
	query := s.db.Rebind("SELECT COUNT(*) FROM authors WHERE id = ? AND project_id = ?")
	return rowExists(ctx, q, query, authorID, projectID)
}

// RecordChanges inserts a batch of per-author commit contributions in one transaction.
func (s *Store) RecordChanges(ctx context.Context, changes []schema.Change) (schema.BatchReport, error) {
	report := schema.BatchReport{Submitted: len(changes)}
	if len(changes) == 0 {
		return report, nil
	}

	query := s.db.Rebind(getInsertIfAbsentQuery(s.backend, schema.ChangesTable, changeColumns, []string{"project_id", "author_id", "hash"}))
	err := s.inTx(ctx, "record changes", func(tx *sqlx.Tx) error {
		for _, c := range changes {
			key := changeKey(c)
			_, ok, err := s.commitTime(ctx, tx, c.ProjectID, c.Hash)
			if err != nil {
				return err
			}
			if !ok {
				s.reject(&report, "change", contract.NewRecordError(contract.ErrReferentialViolation, key, fmt.Errorf("commit %s is not recorded", c.Hash)))
				continue
			}
			ok, err = s.authorInProject(ctx, tx, c.ProjectID, c.AuthorID)
			if err != nil {
				return err
			}
			if !ok {
				s.reject(&report, "change", contract.NewRecordError(contract.ErrReferentialViolation, key, fmt.Errorf("author %d is not registered", c.AuthorID)))
				continue
			}
			res, err := tx.ExecContext(ctx, query,
				c.ProjectID, c.AuthorID, c.Hash, c.ChangesCount, c.ChangesSize,
				c.LinesAdded, c.LinesModified, c.FileAdded, c.FileDeleted, c.FileModified)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n == 1 {
				report.Written++
			} else {
				report.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return schema.BatchReport{Submitted: len(changes)}, err
	}

	s.logBatch("changes", report)
	return report, nil
}

// QueryRevisionWindow returns the earliest and latest revision of a path,
// ordered by commit time with the hash as tie-breaker. Both ends come from
// one statement, so they always describe the same state of the ledger.
func (s *Store) QueryRevisionWindow(ctx context.Context, projectID int64, filePath string) (schema.RevisionWindow, bool, error) {
	const end = "SELECT commit_hash, committed_at FROM file_revisions WHERE project_id = ? AND file_path = ? ORDER BY "
	query := s.db.Rebind(`
		SELECT f.commit_hash AS first_hash, f.committed_at AS first_at,
			l.commit_hash AS last_hash, l.committed_at AS last_at
		FROM (` + end + `committed_at ASC, commit_hash ASC LIMIT 1) f
		CROSS JOIN (` + end + `committed_at DESC, commit_hash DESC LIMIT 1) l`)

	var row revisionWindowRow
	found, err := getOptional(ctx, s.db, &row, query, projectID, filePath, projectID, filePath)
	if err != nil {
		return schema.RevisionWindow{}, false, wrapStorageErr("query revision window", err)
	}
	if !found {
		return schema.RevisionWindow{}, false, nil
	}

	return schema.RevisionWindow{
		FirstHash: row.FirstHash,
		FirstTime: fromUnix(row.FirstAt),
		LastHash:  row.LastHash,
		LastTime:  fromUnix(row.LastAt),
	}, true, nil
}

// QueryCommitSeries returns every commit that touched a path under pathPrefix,
// with its author, oldest first. Paths are literal, so a renamed file only
// contributes the commits recorded under the prefix it matches.
func (s *Store) QueryCommitSeries(ctx context.Context, projectID int64, pathPrefix string) ([]schema.CommitWithAuthor, error) {
	query := s.db.Rebind(`
		SELECT DISTINCT c.hash, c.project_id, c.author_id, c.committed_at, c.project_size, c.stability,
			c.files_added, c.files_deleted, c.files_modified,
			c.lines_added, c.lines_deleted, c.lines_modified, c.change_count,
			a.name AS author_name, a.email AS author_email
		FROM commits c
		JOIN file_revisions r ON r.project_id = c.project_id AND r.commit_hash = c.hash
		JOIN authors a ON a.id = c.author_id
		WHERE c.project_id = ? AND r.file_path LIKE ? ESCAPE '` + likeEscape + `'
		ORDER BY c.committed_at ASC, c.hash ASC`)

	var rows []commitRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, projectID, prefixPattern(pathPrefix)); err != nil {
		return nil, wrapStorageErr("query commit series", err)
	}

	series := make([]schema.CommitWithAuthor, len(rows))
	for i, r := range rows {
		series[i] = r.toCommitWithAuthor()
	}
	return series, nil
}

// reject records a refused record in the report and logs it.
func (s *Store) reject(report *schema.BatchReport, kind string, err *contract.RecordError) {
	report.Reject(err.Key, err)
	s.logger.WithFields(logrus.Fields{
		"record": kind,
		"key":    err.Key,
		"kind":   err.Kind.Error(),
	}).WithError(err.Err).Warn("rejected record")
}

func (s *Store) logBatch(name string, report schema.BatchReport) {
	s.logger.WithFields(logrus.Fields{
		"batch":     name,
		"submitted": report.Submitted,
		"written":   report.Written,
		"skipped":   report.Skipped,
		"rejected":  len(report.Rejected),
	}).Debug("batch committed")
}
