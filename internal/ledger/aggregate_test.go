package ledger

import (
	"context"
	"testing"

	"github.com/huangsam/blameledger/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeveloperTotals_EndToEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)

	recordCommit(t, s, f.commit("c1", f.alice, 1), "f.go")
	recordCommit(t, s, f.commit("c2", f.bob, 2), "f.go")
	target, err := s.ResolveBlameTarget(ctx, f.project.ID, "f.go", "h2")
	require.NoError(t, err)

	_, err = s.WriteOwnership(ctx, []schema.OwnershipRecord{
		ownershipOf(f, f.alice, target, []string{"c1", "c1"}, []int{1, 2}, 20),
		ownershipOf(f, f.bob, target, []string{"c2"}, []int{3}, 10),
	})
	require.NoError(t, err)

	totals, err := s.DeveloperTotals(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "alice@example.com", totals[0].Email)
	assert.Equal(t, int64(2), totals[0].LinesOwned)
	assert.Equal(t, int64(20), totals[0].LineSize)
	assert.Equal(t, 1, totals[0].FileCount)
	assert.Equal(t, []string{"f.go"}, totals[0].OwnedFilePaths)
	assert.Equal(t, "bob@example.com", totals[1].Email)
	assert.Equal(t, int64(1), totals[1].LinesOwned)
}

func TestDeveloperTotals_AuthorWithoutOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)
	target, err := s.ResolveBlameTarget(ctx, f.project.ID, "f.go", "h1")
	require.NoError(t, err)
	_, err = s.WriteOwnership(ctx, []schema.OwnershipRecord{ownershipOf(f, f.alice, target, []string{"c1"}, []int{1}, 3)})
	require.NoError(t, err)

	totals, err := s.DeveloperTotals(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	bob := totals[1]
	assert.Equal(t, "bob@example.com", bob.Email)
	assert.Zero(t, bob.LinesOwned)
	assert.Zero(t, bob.LineSize)
	assert.Zero(t, bob.FileCount)
	assert.NotNil(t, bob.OwnedFilePaths)
	assert.Empty(t, bob.OwnedFilePaths)
}

func TestDeveloperTotals_EmptyProject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	project, err := s.ResolveProject(ctx, "empty", "/src/empty")
	require.NoError(t, err)

	totals, err := s.DeveloperTotals(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestCommitSizeSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)

	c2 := f.commit("c2", f.bob, 2)
	c2.Stability = 0.25
	recordCommit(t, s, c2, "pkg/a.go")
	recordCommit(t, s, f.commit("c1", f.alice, 1), "pkg/a.go")
	recordCommit(t, s, f.commit("c3", f.alice, 3), "cmd/main.go")

	series, err := s.CommitSizeSeries(ctx, f.project.ID, "pkg/")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "c1", series[0].CommitHash)
	assert.Equal(t, "c2", series[1].CommitHash)
	assert.Equal(t, "Bob", series[1].AuthorName)
	assert.Equal(t, "bob@example.com", series[1].AuthorEmail)
	assert.Equal(t, int64(200), series[1].ProjectSize)
	assert.InDelta(t, 0.25, series[1].Stability, 1e-9)
}

func TestOwnershipShares(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)
	inPkg, err := s.ResolveBlameTarget(ctx, f.project.ID, "pkg/a.go", "h1")
	require.NoError(t, err)
	outside, err := s.ResolveBlameTarget(ctx, f.project.ID, "main.go", "h2")
	require.NoError(t, err)

	_, err = s.WriteOwnership(ctx, []schema.OwnershipRecord{
		ownershipOf(f, f.alice, inPkg, []string{"c1"}, []int{1}, 30),
		ownershipOf(f, f.bob, inPkg, []string{"c2"}, []int{2}, 10),
		ownershipOf(f, f.bob, outside, []string{"c2"}, []int{1}, 100),
	})
	require.NoError(t, err)

	shares, err := s.OwnershipShares(ctx, f.project.ID, "pkg/")
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, "alice@example.com", shares[0].Email)
	assert.InDelta(t, 0.75, shares[0].Share, 1e-9)
	assert.InDelta(t, 0.25, shares[1].Share, 1e-9)

	all, err := s.OwnershipShares(ctx, f.project.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bob@example.com", all[0].Email)
}

func TestOwnershipShares_FallsBackToLineCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)
	target, err := s.ResolveBlameTarget(ctx, f.project.ID, "a.go", "h1")
	require.NoError(t, err)
	_, err = s.WriteOwnership(ctx, []schema.OwnershipRecord{
		ownershipOf(f, f.alice, target, []string{"c1", "c1", "c1"}, []int{1, 2, 3}, 0),
		ownershipOf(f, f.bob, target, []string{"c2"}, []int{4}, 0),
	})
	require.NoError(t, err)

	shares, err := s.OwnershipShares(ctx, f.project.ID, "")
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.InDelta(t, 0.75, shares[0].Share, 1e-9)
}

func TestDeveloperChurn_ZeroRows(t *testing.T) {
	s := newTestStore(t)
	f := newFixture(t, s)
	churn, err := s.DeveloperChurn(context.Background(), f.project.ID)
	require.NoError(t, err)
	require.Len(t, churn, 2)
	for _, c := range churn {
		assert.Zero(t, c.Commits)
		assert.Zero(t, c.ChangesSize)
	}
}

func TestProjectOverview(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	f := newFixture(t, s)

	overview, err := s.ProjectOverview(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, f.project, overview.Project)
	assert.Equal(t, 2, overview.Authors)
	assert.Zero(t, overview.Commits)
	assert.Empty(t, overview.LatestCommit)

	recordCommit(t, s, f.commit("c1", f.alice, 1), "a.go", "b.go")
	recordCommit(t, s, f.commit("c2", f.bob, 2), "a.go")
	target, err := s.ResolveBlameTarget(ctx, f.project.ID, "a.go", "h1")
	require.NoError(t, err)
	_, err = s.WriteOwnership(ctx, []schema.OwnershipRecord{ownershipOf(f, f.bob, target, []string{"c2", "c2"}, []int{1, 2}, 8)})
	require.NoError(t, err)

	overview, err = s.ProjectOverview(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Commits)
	assert.Equal(t, 2, overview.TrackedPaths)
	assert.Equal(t, 1, overview.BlameTargets)
	assert.Equal(t, int64(2), overview.OwnedLines)
	assert.Equal(t, "c2", overview.LatestCommit)
	assert.Equal(t, int64(200), overview.LatestSize)

	_, err = s.ProjectOverview(ctx, 999)
	assert.Error(t, err)
}
