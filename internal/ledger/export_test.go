package ledger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExecuteLedgerExport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)
	recordCommit(t, s, f.commit("c1", f.alice, 1), "a.go")
	target, err := s.ResolveBlameTarget(ctx, f.project.ID, "a.go", "h1")
	require.NoError(t, err)
	_, err = s.WriteOwnership(ctx, []schema.OwnershipRecord{ownershipOf(f, f.alice, target, []string{"c1"}, []int{1}, 12)})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "demo")
	var buf bytes.Buffer
	require.NoError(t, ExecuteLedgerExport(ctx, s, ExportOptions{Project: "demo", OutputFile: out}, &buf))

	assert.FileExists(t, out+".ownership.parquet")
	assert.FileExists(t, out+".commits.parquet")
	assert.Contains(t, buf.String(), "Exported 1 ownership rows")
	assert.Contains(t, buf.String(), "Exported 1 commits")
}

func TestExecuteLedgerExport_Errors(t *testing.T) {
	ctx := context.Background()

	err := ExecuteLedgerExport(ctx, &MockLedgerStore{}, ExportOptions{Project: "demo"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "--output-file")

	missing := &MockLedgerStore{}
	missing.On("FindProject", mock.Anything, "ghost").
		Return(schema.Project{}, contract.NewRecordError(contract.ErrNotFound, "project ghost", nil))
	err = ExecuteLedgerExport(ctx, missing, ExportOptions{Project: "ghost", OutputFile: "x"}, &bytes.Buffer{})
	assert.ErrorIs(t, err, contract.ErrNotFound)
	missing.AssertExpectations(t)

	empty := &MockLedgerStore{}
	empty.On("FindProject", mock.Anything, "demo").Return(schema.Project{ID: 1, Name: "demo"}, nil)
	empty.On("ListOwnershipEntries", mock.Anything, int64(1)).Return([]schema.OwnershipEntry{}, nil)
	empty.On("CommitSizeSeries", mock.Anything, int64(1), "").Return([]schema.CommitSize{}, nil)
	err = ExecuteLedgerExport(ctx, empty, ExportOptions{Project: "demo", OutputFile: filepath.Join(t.TempDir(), "x")}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no ledger data")
	empty.AssertExpectations(t)
}

func TestExecuteLedgerExport_SeriesOnly(t *testing.T) {
	store := &MockLedgerStore{}
	store.On("FindProject", mock.Anything, "demo").Return(schema.Project{ID: 3, Name: "demo"}, nil)
	store.On("ListOwnershipEntries", mock.Anything, int64(3)).Return(nil, nil)
	store.On("CommitSizeSeries", mock.Anything, int64(3), "").Return([]schema.CommitSize{
		{CommitHash: "c1", Timestamp: time.Unix(1, 0).UTC(), ProjectSize: 10},
	}, nil)

	out := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, ExecuteLedgerExport(context.Background(), store, ExportOptions{Project: "demo", OutputFile: out}, &bytes.Buffer{}))
	assert.FileExists(t, out+".commits.parquet")
	store.AssertExpectations(t)
}
