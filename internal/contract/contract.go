// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/blameledger/schema"
)

// IdentityRegistry resolves natural keys to stable surrogate ids.
// Every method is upsert-or-fetch and safe to call on every ingestion run.
type IdentityRegistry interface {
	// ResolveProject returns the project for (name, rootPath), creating it if absent.
	ResolveProject(ctx context.Context, name, rootPath string) (schema.Project, error)

	// ResolveAuthor returns the author for (projectID, email), creating it if absent.
	// The display name is last-writer-wins.
	ResolveAuthor(ctx context.Context, projectID int64, name, email string) (schema.Author, error)

	// FindProject looks up a project by name without creating it.
	FindProject(ctx context.Context, name string) (schema.Project, error)
}

// HistoryStore records commit facts and the per-path revision series.
type HistoryStore interface {
	// RecordCommit inserts the commit if absent and reports whether it was written.
	RecordCommit(ctx context.Context, commit schema.Commit) (bool, error)

	// RecordFileRevision inserts one revision if absent.
	RecordFileRevision(ctx context.Context, rev schema.FileRevision) (bool, error)

	// RecordFileRevisions inserts a batch of revisions in one transaction.
	RecordFileRevisions(ctx context.Context, revs []schema.FileRevision) (schema.BatchReport, error)

	// RecordChanges inserts a batch of per-author commit contributions in one transaction.
	RecordChanges(ctx context.Context, changes []schema.Change) (schema.BatchReport, error)

	// QueryRevisionWindow returns the earliest and latest revision of a path.
	// The boolean is false when the path has no recorded revision.
	QueryRevisionWindow(ctx context.Context, projectID int64, filePath string) (schema.RevisionWindow, bool, error)

	// QueryCommitSeries returns the commits touching any path under pathPrefix, oldest first.
	QueryCommitSeries(ctx context.Context, projectID int64, pathPrefix string) ([]schema.CommitWithAuthor, error)
}

// OwnershipLedger records who owns which lines of each file-state.
type OwnershipLedger interface {
	ResolveBlameTarget(ctx context.Context, projectID int64, filePath, fileHash string) (schema.BlameTarget, error)
	GetBlameTarget(ctx context.Context, blameTargetID int64) (schema.BlameTarget, error)

	// WriteOwnership upserts every record of the batch in one transaction and
	// recomputes the size of each touched target before committing. Only the
	// last record of a key is written; earlier ones count as skipped.
	WriteOwnership(ctx context.Context, records []schema.OwnershipRecord) (schema.BatchReport, error)

	// RecomputeBlameTargetSize sets totalLineSize from the current ownership rows.
	RecomputeBlameTargetSize(ctx context.Context, blameTargetID int64) (int64, error)

	GetOwnership(ctx context.Context, blameTargetID int64) ([]schema.OwnershipRecord, error)

	// ListOwnershipEntries returns every ownership row of a project with its author and file-state.
	ListOwnershipEntries(ctx context.Context, projectID int64) ([]schema.OwnershipEntry, error)
}

// Aggregator answers cross-cutting queries over the ledger.
type Aggregator interface {
	DeveloperTotals(ctx context.Context, projectID int64) ([]schema.DeveloperTotals, error)
	CommitSizeSeries(ctx context.Context, projectID int64, pathPrefix string) ([]schema.CommitSize, error)
	OwnershipShares(ctx context.Context, projectID int64, pathPrefix string) ([]schema.OwnershipShare, error)
	DeveloperChurn(ctx context.Context, projectID int64) ([]schema.DeveloperChurn, error)
	ProjectOverview(ctx context.Context, projectID int64) (schema.ProjectOverview, error)
}

// LedgerStore is the full storage surface used by ingestion and queries.
// This allows the store to be mocked for testing.
type LedgerStore interface {
	IdentityRegistry
	HistoryStore
	OwnershipLedger
	Aggregator

	// ResetProject deletes every fact of one project in one transaction.
	ResetProject(ctx context.Context, projectID int64) error

	// GetStatus returns status information about the ledger store.
	GetStatus(ctx context.Context) (schema.LedgerStatus, error)

	// Close closes the underlying connection.
	Close() error
}
