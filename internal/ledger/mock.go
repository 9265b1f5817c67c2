package ledger

import (
	"context"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/stretchr/testify/mock"
)

// MockLedgerStore is a mock implementation of LedgerStore for testing.
type MockLedgerStore struct {
	mock.Mock
}

var _ contract.LedgerStore = &MockLedgerStore{} // Compile-time check

// ResolveProject implements the IdentityRegistry interface.
func (m *MockLedgerStore) ResolveProject(ctx context.Context, name, rootPath string) (schema.Project, error) {
	args := m.Called(ctx, name, rootPath)
	return args.Get(0).(schema.Project), args.Error(1)
}

// ResolveAuthor implements the IdentityRegistry interface.
func (m *MockLedgerStore) ResolveAuthor(ctx context.Context, projectID int64, name, email string) (schema.Author, error) {
	args := m.Called(ctx, projectID, name, email)
	return args.Get(0).(schema.Author), args.Error(1)
}

// FindProject implements the IdentityRegistry interface.
func (m *MockLedgerStore) FindProject(ctx context.Context, name string) (schema.Project, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(schema.Project), args.Error(1)
}

// RecordCommit implements the HistoryStore interface.
func (m *MockLedgerStore) RecordCommit(ctx context.Context, commit schema.Commit) (bool, error) {
	args := m.Called(ctx, commit)
	return args.Bool(0), args.Error(1)
}

// RecordFileRevision implements the HistoryStore interface.
func (m *MockLedgerStore) RecordFileRevision(ctx context.Context, rev schema.FileRevision) (bool, error) {
	args := m.Called(ctx, rev)
	return args.Bool(0), args.Error(1)
}

// RecordFileRevisions implements the HistoryStore interface.
func (m *MockLedgerStore) RecordFileRevisions(ctx context.Context, revs []schema.FileRevision) (schema.BatchReport, error) {
	args := m.Called(ctx, revs)
	return args.Get(0).(schema.BatchReport), args.Error(1)
}

// RecordChanges implements the HistoryStore interface.
func (m *MockLedgerStore) RecordChanges(ctx context.Context, changes []schema.Change) (schema.BatchReport, error) {
	args := m.Called(ctx, changes)
	return args.Get(0).(schema.BatchReport), args.Error(1)
}

// QueryRevisionWindow implements the HistoryStore interface.
func (m *MockLedgerStore) QueryRevisionWindow(ctx context.Context, projectID int64, filePath string) (schema.RevisionWindow, bool, error) {
	args := m.Called(ctx, projectID, filePath)
	return args.Get(0).(schema.RevisionWindow), args.Bool(1), args.Error(2)
}

// QueryCommitSeries implements the HistoryStore interface.
func (m *MockLedgerStore) QueryCommitSeries(ctx context.Context, projectID int64, pathPrefix string) ([]schema.CommitWithAuthor, error) {
	args := m.Called(ctx, projectID, pathPrefix)
	series, _ := args.Get(0).([]schema.CommitWithAuthor)
	return series, args.Error(1)
}

// ResolveBlameTarget implements the OwnershipLedger interface.
func (m *MockLedgerStore) ResolveBlameTarget(ctx context.Context, projectID int64, filePath, fileHash string) (schema.BlameTarget, error) {
	args := m.Called(ctx, projectID, filePath, fileHash)
	return args.Get(0).(schema.BlameTarget), args.Error(1)
}

// GetBlameTarget implements the OwnershipLedger interface.
func (m *MockLedgerStore) GetBlameTarget(ctx context.Context, blameTargetID int64) (schema.BlameTarget, error) {
	args := m.Called(ctx, blameTargetID)
	return args.Get(0).(schema.BlameTarget), args.Error(1)
}

// WriteOwnership implements the OwnershipLedger interface.
func (m *MockLedgerStore) WriteOwnership(ctx context.Context, records []schema.OwnershipRecord) (schema.BatchReport, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(schema.BatchReport), args.Error(1)
}

// RecomputeBlameTargetSize implements the OwnershipLedger interface.
func (m *MockLedgerStore) RecomputeBlameTargetSize(ctx context.Context, blameTargetID int64) (int64, error) {
	args := m.Called(ctx, blameTargetID)
	return args.Get(0).(int64), args.Error(1)
}

// GetOwnership implements the OwnershipLedger interface.
func (m *MockLedgerStore) GetOwnership(ctx context.Context, blameTargetID int64) ([]schema.OwnershipRecord, error) {
	args := m.Called(ctx, blameTargetID)
	records, _ := args.Get(0).([]schema.OwnershipRecord)
	return records, args.Error(1)
}

// ListOwnershipEntries implements the OwnershipLedger interface.
func (m *MockLedgerStore) ListOwnershipEntries(ctx context.Context, projectID int64) ([]schema.OwnershipEntry, error) {
	args := m.Called(ctx, projectID)
	entries, _ := args.Get(0).([]schema.OwnershipEntry)
	return entries, args.Error(1)
}

// DeveloperTotals implements the Aggregator interface.
func (m *MockLedgerStore) DeveloperTotals(ctx context.Context, projectID int64) ([]schema.DeveloperTotals, error) {
	args := m.Called(ctx, projectID)
	totals, _ := args.Get(0).([]schema.DeveloperTotals)
	return totals, args.Error(1)
}

// CommitSizeSeries implements the Aggregator interface.
func (m *MockLedgerStore) CommitSizeSeries(ctx context.Context, projectID int64, pathPrefix string) ([]schema.CommitSize, error) {
	args := m.Called(ctx, projectID, pathPrefix)
	series, _ := args.Get(0).([]schema.CommitSize)
	return series, args.Error(1)
}

// OwnershipShares implements the Aggregator interface.
func (m *MockLedgerStore) OwnershipShares(ctx context.Context, projectID int64, pathPrefix string) ([]schema.OwnershipShare, error) {
	args := m.Called(ctx, projectID, pathPrefix)
	shares, _ := args.Get(0).([]schema.OwnershipShare)
	return shares, args.Error(1)
}

// DeveloperChurn implements the Aggregator interface.
func (m *MockLedgerStore) DeveloperChurn(ctx context.Context, projectID int64) ([]schema.DeveloperChurn, error) {
	args := m.Called(ctx, projectID)
	churn, _ := args.Get(0).([]schema.DeveloperChurn)
	return churn, args.Error(1)
}

// ProjectOverview implements the Aggregator interface.
func (m *MockLedgerStore) ProjectOverview(ctx context.Context, projectID int64) (schema.ProjectOverview, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(schema.ProjectOverview), args.Error(1)
}

// ResetProject implements the LedgerStore interface.
func (m *MockLedgerStore) ResetProject(ctx context.Context, projectID int64) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

// GetStatus implements the LedgerStore interface.
func (m *MockLedgerStore) GetStatus(ctx context.Context) (schema.LedgerStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.LedgerStatus), args.Error(1)
}

// Close implements the LedgerStore interface.
func (m *MockLedgerStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
