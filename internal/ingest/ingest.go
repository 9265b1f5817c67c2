// Package ingest turns mined-history streams into ledger facts.
//
// A stream is processed one unit at a time: every commit and every blamed
// file-state is its own chunk, so an interrupted run loses at most one unit
// and re-running the stream resumes through idempotent upserts.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options configures an Ingestor.
type Options struct {
	BatchSize   int      // Revisions or changes per write transaction; blame snapshots are never split
	MaxUnitSize int      // Largest accepted stream line, in bytes
	Metrics     *Metrics // Optional
}

// Ingestor writes mined history into a ledger store.
type Ingestor struct {
	store       contract.LedgerStore
	logger      *logrus.Logger
	metrics     *Metrics
	batchSize   int
	maxUnitSize int
}

// New returns an Ingestor over store.
func New(store contract.LedgerStore, logger *logrus.Logger, opts Options) *Ingestor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = contract.DefaultBatchSize
	}
	if opts.MaxUnitSize <= 0 {
		opts.MaxUnitSize = 16 << 20
	}
	return &Ingestor{
		store:       store,
		logger:      logger,
		metrics:     opts.Metrics,
		batchSize:   opts.BatchSize,
		maxUnitSize: opts.MaxUnitSize,
	}
}

// Report totals one ingestion pass over a project.
type Report struct {
	RunID        string             `json:"run_id"`
	Source       string             `json:"source,omitempty"`
	Project      schema.Project     `json:"project"`
	Units        int                `json:"units"`
	Commits      schema.BatchReport `json:"commits"`
	Revisions    schema.BatchReport `json:"revisions"`
	Changes      schema.BatchReport `json:"changes"`
	Ownership    schema.BatchReport `json:"ownership"`
	BlameTargets int                `json:"blame_targets"`
	Cleared      int                `json:"cleared"` // authors emptied by snapshot completion
	Duration     time.Duration      `json:"duration"`
}

// Rejected counts every rejected record of the pass.
func (r Report) Rejected() int {
	return len(r.Commits.Rejected) + len(r.Revisions.Rejected) + len(r.Changes.Rejected) + len(r.Ownership.Rejected)
}

// Session is one ingestion pass bound to a project.
// It is not safe for concurrent use.
type Session struct {
	ing     *Ingestor
	project schema.Project
	authors map[string]schema.Author // by email
	report  Report
	started time.Time
	log     *logrus.Entry
}

// Begin resolves the project and opens a session on it.
func (ing *Ingestor) Begin(ctx context.Context, name, rootPath string) (*Session, error) {
	project, err := ing.store.ResolveProject(ctx, name, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project %q: %w", name, err)
	}
	runID := uuid.NewString()
	return &Session{
		ing:     ing,
		project: project,
		authors: make(map[string]schema.Author),
		report:  Report{RunID: runID, Project: project},
		started: time.Now(),
		log: ing.logger.WithFields(logrus.Fields{
			"run_id":  runID,
			"project": project.Name,
		}),
	}, nil
}

// Project returns the project of the session.
func (s *Session) Project() schema.Project {
	return s.project
}

// Report returns the totals so far.
func (s *Session) Report() Report {
	report := s.report
	report.Duration = time.Since(s.started)
	return report
}

// isRecordLevel reports errors that reject one record rather than the pass.
func isRecordLevel(err error) bool {
	var recErr *contract.RecordError
	return errors.As(err, &recErr) && !errors.Is(err, contract.ErrStorageUnavailable)
}

// resolveAuthor returns the author for ref, calling the store only for
// unseen emails or a changed display name.
func (s *Session) resolveAuthor(ctx context.Context, ref AuthorRef) (schema.Author, error) {
	if author, ok := s.authors[ref.Email]; ok && author.Name == ref.Name {
		return author, nil
	}
	author, err := s.ing.store.ResolveAuthor(ctx, s.project.ID, ref.Name, ref.Email)
	if err != nil {
		return schema.Author{}, err
	}
	s.authors[ref.Email] = author
	return author, nil
}

// reject accounts a record refused before it reached the store.
func (s *Session) reject(report *schema.BatchReport, relation, key string, err error) {
	report.Submitted++
	s.refuse(report, relation, key, err)
}

// refuse accounts a submitted record the store refused.
func (s *Session) refuse(report *schema.BatchReport, relation, key string, err error) {
	report.Reject(key, err)
	s.log.WithFields(logrus.Fields{"record": relation, "key": key}).WithError(err).Warn("rejected record")
}

// IngestCommit records one commit, its file revisions and its per-author changes.
// Revisions and changes are written even when the commit was already recorded,
// so a pass interrupted halfway through a commit completes on the next run.
func (s *Session) IngestCommit(ctx context.Context, c CommitUnit) error {
	start := time.Now()
	key := fmt.Sprintf("commit %d/%s", s.project.ID, c.Hash)

	var commitReport schema.BatchReport
	author, err := s.resolveAuthor(ctx, c.Author)
	switch {
	case err == nil:
		commitReport.Submitted++
		inserted, err := s.ing.store.RecordCommit(ctx, schema.Commit{
			Hash:        c.Hash,
			ProjectID:   s.project.ID,
			AuthorID:    author.ID,
			Timestamp:   c.Timestamp,
			ProjectSize: c.ProjectSize,
			Stability:   c.Stability,
			Files:       c.Files,
			Lines:       c.Lines,
			ChangeCount: c.ChangeCount,
		})
		switch {
		case err == nil && inserted:
			commitReport.Written++
		case err == nil:
			commitReport.Skipped++
		case isRecordLevel(err):
			s.refuse(&commitReport, "commit", key, err)
		default:
			return fmt.Errorf("failed to record commit %s: %w", c.Hash, err)
		}
	case isRecordLevel(err):
		s.reject(&commitReport, "commit", key, err)
	default:
		return fmt.Errorf("failed to resolve author %s: %w", c.Author.Email, err)
	}
	s.report.Commits.Merge(commitReport)
	s.ing.metrics.RecordBatch(ctx, schema.CommitsTable, commitReport)

	revs := make([]schema.FileRevision, len(c.Paths))
	for i, path := range c.Paths {
		revs[i] = schema.FileRevision{ProjectID: s.project.ID, FilePath: path, CommitHash: c.Hash, Timestamp: c.Timestamp}
	}
	for batch := range slices.Chunk(revs, s.ing.batchSize) {
		report, err := s.ing.store.RecordFileRevisions(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to record revisions of %s: %w", c.Hash, err)
		}
		s.report.Revisions.Merge(report)
		s.ing.metrics.RecordBatch(ctx, schema.FileRevisionsTable, report)
	}

	if err := s.ingestChanges(ctx, c); err != nil {
		return err
	}

	s.report.Units++
	s.ing.metrics.RecordUnit(ctx, "commit", time.Since(start))
	s.log.WithFields(logrus.Fields{
		"commit":  c.Hash,
		"paths":   len(c.Paths),
		"changes": len(c.Changes),
	}).Debug("commit ingested")
	return nil
}

func (s *Session) ingestChanges(ctx context.Context, c CommitUnit) error {
	changes := make([]schema.Change, 0, len(c.Changes))
	var rejected schema.BatchReport
	for _, cu := range c.Changes {
		author, err := s.resolveAuthor(ctx, cu.Author)
		if err != nil {
			if !isRecordLevel(err) {
				return fmt.Errorf("failed to resolve author %s: %w", cu.Author.Email, err)
			}
			s.reject(&rejected, "change", fmt.Sprintf("change %d/%s/%s", s.project.ID, cu.Author.Email, c.Hash), err)
			continue
		}
		changes = append(changes, schema.Change{
			Hash:          c.Hash,
			AuthorID:      author.ID,
			ProjectID:     s.project.ID,
			ChangesCount:  cu.ChangesCount,
			ChangesSize:   cu.ChangesSize,
			LinesAdded:    cu.LinesAdded,
			LinesModified: cu.LinesModified,
			FileAdded:     cu.FileAdded,
			FileDeleted:   cu.FileDeleted,
			FileModified:  cu.FileModified,
		})
	}
	s.report.Changes.Merge(rejected)
	s.ing.metrics.RecordBatch(ctx, schema.ChangesTable, rejected)

	for batch := range slices.Chunk(changes, s.ing.batchSize) {
		report, err := s.ing.store.RecordChanges(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to record changes of %s: %w", c.Hash, err)
		}
		s.report.Changes.Merge(report)
		s.ing.metrics.RecordBatch(ctx, schema.ChangesTable, report)
	}
	return nil
}

// IngestBlame replaces the attribution of one file-state with a complete snapshot.
// Entries sharing an email are merged. Authors who owned lines of the target
// before but are missing from the snapshot are written with no lines, so the
// target reflects the snapshot without deleting any row.
func (s *Session) IngestBlame(ctx context.Context, b BlameUnit) error {
	start := time.Now()
	key := fmt.Sprintf("blame %d/%s@%s", s.project.ID, b.Path, b.FileHash)

	target, err := s.ing.store.ResolveBlameTarget(ctx, s.project.ID, b.Path, b.FileHash)
	if err != nil {
		if !isRecordLevel(err) {
			return fmt.Errorf("failed to resolve blame target %s@%s: %w", b.Path, b.FileHash, err)
		}
		var rejected schema.BatchReport
		s.reject(&rejected, "blame target", key, err)
		s.report.Ownership.Merge(rejected)
		s.ing.metrics.RecordBatch(ctx, schema.OwnershipTable, rejected)
		return nil
	}

	var rejected schema.BatchReport
	records := make([]schema.OwnershipRecord, 0, len(b.Authors))
	index := make(map[int64]int, len(b.Authors))
	for _, ba := range b.Authors {
		author, err := s.resolveAuthor(ctx, AuthorRef{Name: ba.Name, Email: ba.Email})
		if err != nil {
			if !isRecordLevel(err) {
				return fmt.Errorf("failed to resolve author %s: %w", ba.Email, err)
			}
			s.reject(&rejected, "ownership", key+"/"+ba.Email, err)
			continue
		}
		i, ok := index[author.ID]
		if !ok {
			i = len(records)
			index[author.ID] = i
			records = append(records, schema.OwnershipRecord{
				ProjectID:     s.project.ID,
				AuthorID:      author.ID,
				BlameTargetID: target.ID,
				CommitHashes:  []string{},
				LineIDs:       []int{},
			})
		}
		for _, pair := range ba.Lines {
			records[i].CommitHashes = append(records[i].CommitHashes, pair.Commit)
			records[i].LineIDs = append(records[i].LineIDs, pair.Line)
		}
		records[i].LineSize += ba.LineSize
	}
	s.report.Ownership.Merge(rejected)
	s.ing.metrics.RecordBatch(ctx, schema.OwnershipTable, rejected)

	cleared, err := s.completeSnapshot(ctx, target, index)
	if err != nil {
		return err
	}
	records = append(records, cleared...)

	// A file-state is always one batch; batch size does not apply here
	report, err := s.ing.store.WriteOwnership(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to write ownership of %s@%s: %w", b.Path, b.FileHash, err)
	}
	s.report.Ownership.Merge(report)
	s.ing.metrics.RecordBatch(ctx, schema.OwnershipTable, report)

	s.report.BlameTargets++
	s.report.Cleared += len(cleared)
	s.report.Units++
	s.ing.metrics.RecordUnit(ctx, "blame", time.Since(start))
	s.log.WithFields(logrus.Fields{
		"path":    b.Path,
		"hash":    b.FileHash,
		"authors": len(records),
		"cleared": len(cleared),
	}).Debug("blame ingested")
	return nil
}

// completeSnapshot returns empty records for previous owners missing from present.
func (s *Session) completeSnapshot(ctx context.Context, target schema.BlameTarget, present map[int64]int) ([]schema.OwnershipRecord, error) {
	previous, err := s.ing.store.GetOwnership(ctx, target.ID)
	if errors.Is(err, contract.ErrEncoding) {
		// Rows of present authors are still replaced; only the cleanup is skipped
		s.log.WithField("blame_target_id", target.ID).WithError(err).Warn("cannot read previous ownership")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ownership of %s@%s: %w", target.FilePath, target.FileHash, err)
	}

	var cleared []schema.OwnershipRecord
	for _, prev := range previous {
		if _, ok := present[prev.AuthorID]; ok || prev.LineCount() == 0 {
			continue
		}
		cleared = append(cleared, schema.OwnershipRecord{
			ProjectID:     prev.ProjectID,
			AuthorID:      prev.AuthorID,
			BlameTargetID: prev.BlameTargetID,
			CommitHashes:  []string{},
			LineIDs:       []int{},
		})
	}
	return cleared, nil
}

// IngestStream ingests one JSON Lines stream. The first unit must declare the project.
// The returned report covers everything written before an error.
func (ing *Ingestor) IngestStream(ctx context.Context, r io.Reader, source string) (Report, error) {
	reader := NewReader(r, ing.maxUnitSize)
	var session *Session

	current := func() Report {
		if session == nil {
			return Report{Source: source}
		}
		return session.Report()
	}

	for {
		if err := ctx.Err(); err != nil {
			return current(), err
		}
		unit, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return current(), fmt.Errorf("%s: %w", source, err)
		}

		switch {
		case unit.Project != nil:
			if session != nil {
				return current(), fmt.Errorf("%s: line %d: %w: stream declares a second project", source, reader.Line(), ErrMalformedUnit)
			}
			session, err = ing.Begin(ctx, unit.Project.Name, unit.Project.RootPath)
			if err != nil {
				return current(), fmt.Errorf("%s: %w", source, err)
			}
			session.report.Source = source
		case session == nil:
			return current(), fmt.Errorf("%s: line %d: %w: the first unit must declare the project", source, reader.Line(), ErrMalformedUnit)
		case unit.Commit != nil:
			err = session.IngestCommit(ctx, *unit.Commit)
		case unit.Blame != nil:
			err = session.IngestBlame(ctx, *unit.Blame)
		}
		if err != nil {
			return current(), fmt.Errorf("%s: line %d: %w", source, reader.Line(), err)
		}
	}

	if session == nil {
		return current(), fmt.Errorf("%s: %w: stream declares no project", source, ErrMalformedUnit)
	}

	report := session.Report()
	session.log.WithFields(logrus.Fields{
		"source":    source,
		"units":     report.Units,
		"commits":   report.Commits.Written,
		"revisions": report.Revisions.Written,
		"ownership": report.Ownership.Written,
		"rejected":  report.Rejected(),
		"duration":  report.Duration.Round(time.Millisecond),
	}).Info("stream ingested")
	return report, nil
}

// IngestFiles ingests several streams with at most workers running at once.
// "-" reads standard input. The first failure cancels the remaining streams.
func (ing *Ingestor) IngestFiles(ctx context.Context, paths []string, workers int) ([]Report, error) {
	reports := make([]Report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, path := range paths {
		g.Go(func() error {
			rc, err := openSource(path)
			if err != nil {
				reports[i] = Report{Source: path}
				return err
			}
			defer func() { _ = rc.Close() }()

			reports[i], err = ing.IngestStream(ctx, rc, path)
			return err
		})
	}
	return reports, g.Wait()
}

func openSource(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}
