package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ingest"
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockWriter records what a command hands to the output layer.
type mockWriter struct {
	mock.Mock
}

var _ ResultWriter = &mockWriter{}

func (m *mockWriter) WriteTotals(p schema.Project, totals []schema.DeveloperTotals, cfg *contract.Config, d time.Duration) error {
	return m.Called(p, totals, cfg, d).Error(0)
}

func (m *mockWriter) WriteSeries(p schema.Project, prefix string, series []schema.CommitSize, cfg *contract.Config, d time.Duration) error {
	return m.Called(p, prefix, series, cfg, d).Error(0)
}

func (m *mockWriter) WriteWindow(window schema.PathWindow, cfg *contract.Config) error {
	return m.Called(window, cfg).Error(0)
}

func (m *mockWriter) WriteShares(p schema.Project, prefix string, shares []schema.OwnershipShare, cfg *contract.Config, d time.Duration) error {
	return m.Called(p, prefix, shares, cfg, d).Error(0)
}

func (m *mockWriter) WriteChurn(p schema.Project, churn []schema.DeveloperChurn, cfg *contract.Config, d time.Duration) error {
	return m.Called(p, churn, cfg, d).Error(0)
}

func (m *mockWriter) WriteOverview(overview schema.ProjectOverview, cfg *contract.Config) error {
	return m.Called(overview, cfg).Error(0)
}

func (m *mockWriter) WriteIngestReports(reports []ingest.Report, cfg *contract.Config, d time.Duration) error {
	return m.Called(reports, cfg, d).Error(0)
}

func (m *mockWriter) WriteStatus(status schema.LedgerStatus, cfg *contract.Config) error {
	return m.Called(status, cfg).Error(0)
}

var project = schema.Project{ID: 3, Name: "P", RootPath: "/src/p"}

func projectStore() *ledger.MockLedgerStore {
	store := &ledger.MockLedgerStore{}
	store.On("FindProject", mock.Anything, "P").Return(project, nil)
	return store
}

func TestFindProject(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a project", func(t *testing.T) {
		_, err := findProject(ctx, &contract.Config{}, &ledger.MockLedgerStore{})
		assert.EqualError(t, err, "--project or --root-path is required")
	})

	t.Run("unknown project", func(t *testing.T) {
		store := &ledger.MockLedgerStore{}
		store.On("FindProject", mock.Anything, "Q").
			Return(schema.Project{}, contract.NewRecordError(contract.ErrNotFound, "project Q", nil))
		_, err := findProject(ctx, &contract.Config{Project: "Q"}, store)
		require.Error(t, err)
		assert.ErrorIs(t, err, contract.ErrNotFound)
		assert.Contains(t, err.Error(), "has not been ingested")
	})

	t.Run("storage failure", func(t *testing.T) {
		store := &ledger.MockLedgerStore{}
		store.On("FindProject", mock.Anything, "P").Return(schema.Project{}, contract.ErrStorageUnavailable)
		_, err := findProject(ctx, &contract.Config{Project: "P"}, store)
		assert.ErrorIs(t, err, contract.ErrStorageUnavailable)
	})
}

func TestExecuteQueries(t *testing.T) {
	ctx := context.Background()
	cfg := &contract.Config{Project: "P", Prefix: "internal/"}

	t.Run("totals", func(t *testing.T) {
		store := projectStore()
		totals := []schema.DeveloperTotals{{AuthorID: 1, LinesOwned: 2}}
		store.On("DeveloperTotals", mock.Anything, int64(3)).Return(totals, nil)
		w := &mockWriter{}
		w.On("WriteTotals", project, totals, cfg, mock.Anything).Return(nil)

		require.NoError(t, ExecuteTotals(ctx, cfg, store, w))
		w.AssertExpectations(t)
	})

	t.Run("series uses the prefix", func(t *testing.T) {
		store := projectStore()
		series := []schema.CommitSize{{CommitHash: "c1"}}
		store.On("CommitSizeSeries", mock.Anything, int64(3), "internal/").Return(series, nil)
		w := &mockWriter{}
		w.On("WriteSeries", project, "internal/", series, cfg, mock.Anything).Return(nil)

		require.NoError(t, ExecuteSeries(ctx, cfg, store, w))
		w.AssertExpectations(t)
	})

	t.Run("shares use the prefix", func(t *testing.T) {
		store := projectStore()
		shares := []schema.OwnershipShare{{AuthorID: 1, Share: 1}}
		store.On("OwnershipShares", mock.Anything, int64(3), "internal/").Return(shares, nil)
		w := &mockWriter{}
		w.On("WriteShares", project, "internal/", shares, cfg, mock.Anything).Return(nil)

		require.NoError(t, ExecuteShares(ctx, cfg, store, w))
		w.AssertExpectations(t)
	})

	t.Run("churn", func(t *testing.T) {
		store := projectStore()
		churn := []schema.DeveloperChurn{{AuthorID: 1, Commits: 2}}
		store.On("DeveloperChurn", mock.Anything, int64(3)).Return(churn, nil)
		w := &mockWriter{}
		w.On("WriteChurn", project, churn, cfg, mock.Anything).Return(nil)

		require.NoError(t, ExecuteChurn(ctx, cfg, store, w))
		w.AssertExpectations(t)
	})

	t.Run("overview", func(t *testing.T) {
		store := projectStore()
		overview := schema.ProjectOverview{Project: project, Commits: 4}
		store.On("ProjectOverview", mock.Anything, int64(3)).Return(overview, nil)
		w := &mockWriter{}
		w.On("WriteOverview", overview, cfg).Return(nil)

		require.NoError(t, ExecuteOverview(ctx, cfg, store, w))
		w.AssertExpectations(t)
	})

	t.Run("status", func(t *testing.T) {
		store := &ledger.MockLedgerStore{}
		status := schema.LedgerStatus{Backend: "sqlite", Connected: true}
		store.On("GetStatus", mock.Anything).Return(status, nil)
		w := &mockWriter{}
		w.On("WriteStatus", status, cfg).Return(nil)

		require.NoError(t, ExecuteStatus(ctx, cfg, store, w))
		w.AssertExpectations(t)
	})
}

func TestExecuteQueries_StoreErrors(t *testing.T) {
	ctx := context.Background()
	cfg := &contract.Config{Project: "P"}
	storageErr := fmt.Errorf("developer totals: %w", contract.ErrStorageUnavailable)

	store := projectStore()
	store.On("DeveloperTotals", mock.Anything, int64(3)).Return(nil, storageErr)
	store.On("DeveloperChurn", mock.Anything, int64(3)).Return(nil, storageErr)
	w := &mockWriter{}

	assert.ErrorIs(t, ExecuteTotals(ctx, cfg, store, w), contract.ErrStorageUnavailable)
	assert.ErrorIs(t, ExecuteChurn(ctx, cfg, store, w), contract.ErrStorageUnavailable)
	w.AssertNotCalled(t, "WriteTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteWindow(t *testing.T) {
	ctx := context.Background()
	cfg := &contract.Config{Project: "P"}

	t.Run("requires a path", func(t *testing.T) {
		assert.Error(t, ExecuteWindow(ctx, cfg, &ledger.MockLedgerStore{}, &mockWriter{}, ""))
	})

	t.Run("absent path is reported, not an error", func(t *testing.T) {
		store := projectStore()
		store.On("QueryRevisionWindow", mock.Anything, int64(3), "gone.go").Return(schema.RevisionWindow{}, false, nil)
		w := &mockWriter{}
		w.On("WriteWindow", schema.PathWindow{Path: "gone.go"}, cfg).Return(nil)

		require.NoError(t, ExecuteWindow(ctx, cfg, store, w, "gone.go"))
		w.AssertExpectations(t)
	})
}

func TestExecuteReset(t *testing.T) {
	ctx := context.Background()
	store := projectStore()
	store.On("ResetProject", mock.Anything, int64(3)).Return(nil)

	var out bytes.Buffer
	require.NoError(t, ExecuteReset(ctx, &contract.Config{Project: "P"}, store, &out))
	assert.Equal(t, "Project P reset successfully.\n", out.String())

	failing := projectStore()
	failing.On("ResetProject", mock.Anything, int64(3)).Return(errors.New("locked"))
	assert.ErrorContains(t, ExecuteReset(ctx, &contract.Config{Project: "P"}, failing, io.Discard), "locked")
}

func TestExecuteIngest(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := ledger.NewStore(schema.SQLiteBackend, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := t.TempDir()
	good := filepath.Join(dir, "p.jsonl")
	require.NoError(t, os.WriteFile(good, []byte(`{"project":{"name":"P","root_path":"/src/p"}}
{"commit":{"hash":"c1","author":{"name":"A","email":"a@x"},"timestamp":"2024-01-01T00:00:00Z","paths":["f.go"]}}
`), 0o644))
	cfg := &contract.Config{Workers: 1, BatchSize: 10, MaxUnitSize: 1 << 20}

	t.Run("writes reports", func(t *testing.T) {
		w := &mockWriter{}
		w.On("WriteIngestReports", mock.MatchedBy(func(reports []ingest.Report) bool {
			return len(reports) == 1 && reports[0].Commits.Written == 1 && reports[0].Project.Name == "P"
		}), cfg, mock.Anything).Return(nil)

		require.NoError(t, ExecuteIngest(context.Background(), cfg, store, logger, nil, []string{good}, w))
		w.AssertExpectations(t)
	})

	t.Run("reports are written even when a stream fails", func(t *testing.T) {
		w := &mockWriter{}
		w.On("WriteIngestReports", mock.Anything, cfg, mock.Anything).Return(nil)

		err := ExecuteIngest(context.Background(), cfg, store, logger, nil, []string{filepath.Join(dir, "missing.jsonl")}, w)
		require.Error(t, err)
		w.AssertExpectations(t)
	})

	t.Run("writer failure surfaces", func(t *testing.T) {
		w := &mockWriter{}
		w.On("WriteIngestReports", mock.Anything, cfg, mock.Anything).Return(errors.New("disk full"))

		err := ExecuteIngest(context.Background(), cfg, store, logger, nil, []string{good}, w)
		assert.EqualError(t, err, "disk full")
	})
}
