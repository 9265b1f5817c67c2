package ledger

import (
	"context"
	"fmt"

	"github.com/huangsam/blameledger/schema"
	"github.com/jmoiron/sqlx"
)

// authorSums is one author's summed ownership or churn figures.
type authorSums struct {
	AuthorID   int64  `db:"author_id"`
	Name       string `db:"name"`
	Email      string `db:"email"`
	LinesOwned int64  `db:"lines_owned"`
	LineSize   int64  `db:"line_size"`
}

type authorPath struct {
	AuthorID int64  `db:"author_id"`
	FilePath string `db:"file_path"`
}

// DeveloperTotals sums every ownership row of each author in the project.
// Authors without ownership rows are reported with zero totals.
func (s *Store) DeveloperTotals(ctx context.Context, projectID int64) ([]schema.DeveloperTotals, error) {
	query := s.db.Rebind(fmt.Sprintf(`
		SELECT a.id AS author_id, a.name AS name, a.email AS email,
			%s AS lines_owned,
			%s AS line_size
		FROM authors a
		LEFT JOIN ownership o ON o.author_id = a.id AND o.project_id = a.project_id
		WHERE a.project_id = ?
		GROUP BY a.id, a.name, a.email
		ORDER BY lines_owned DESC, a.email ASC`,
		sumExpr(s.backend, "o.line_count"), sumExpr(s.backend, "o.line_size")))

	var sums []authorSums
	if err := sqlx.SelectContext(ctx, s.db, &sums, query, projectID); err != nil {
		return nil, wrapStorageErr("developer totals", err)
	}

	pathQuery := s.db.Rebind(`
		SELECT DISTINCT o.author_id, t.file_path
		FROM ownership o
		JOIN blame_targets t ON t.id = o.blame_target_id
		WHERE o.project_id = ? AND o.line_count > 0
		ORDER BY o.author_id, t.file_path`)

	var paths []authorPath
	if err := sqlx.SelectContext(ctx, s.db, &paths, pathQuery, projectID); err != nil {
		return nil, wrapStorageErr("developer owned paths", err)
	}
	owned := make(map[int64][]string)
	for _, p := range paths {
		owned[p.AuthorID] = append(owned[p.AuthorID], p.FilePath)
	}

	totals := make([]schema.DeveloperTotals, len(sums))
	for i, sum := range sums {
		files := owned[sum.AuthorID]
		if files == nil {
			files = []string{}
		}
		totals[i] = schema.DeveloperTotals{
			AuthorID:       sum.AuthorID,
			Name:           sum.Name,
			Email:          sum.Email,
			LinesOwned:     sum.LinesOwned,
			LineSize:       sum.LineSize,
			FileCount:      len(files),
			OwnedFilePaths: files,
		}
	}
	return totals, nil
}

// CommitSizeSeries returns project size and stability per commit touching pathPrefix.
// Stability is republished as recorded, never derived here.
func (s *Store) CommitSizeSeries(ctx context.Context, projectID int64, pathPrefix string) ([]schema.CommitSize, error) {
	commits, err := s.QueryCommitSeries(ctx, projectID, pathPrefix)
	if err != nil {
		return nil, err
	}
	series := make([]schema.CommitSize, len(commits))
	for i, c := range commits {
		series[i] = schema.CommitSize{
			CommitHash:  c.Commit.Hash,
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			Timestamp:   c.Commit.Timestamp,
			ProjectSize: c.Commit.ProjectSize,
			Stability:   c.Commit.Stability,
		}
	}
	return series, nil
}

// OwnershipShares splits the owned lines of a subtree between its authors.
// Share is relative to line size, or to line count when the subtree has no size.
func (s *Store) OwnershipShares(ctx context.Context, projectID int64, pathPrefix string) ([]schema.OwnershipShare, error) {
	query := s.db.Rebind(fmt.Sprintf(`
		SELECT a.id AS author_id, a.name AS name, a.email AS email,
			%s AS lines_owned,
			%s AS line_size
		FROM ownership o
		JOIN blame_targets t ON t.id = o.blame_target_id
		JOIN authors a ON a.id = o.author_id
		WHERE o.project_id = ? AND o.line_count > 0 AND t.file_path LIKE ? ESCAPE '%s'
		GROUP BY a.id, a.name, a.email
		ORDER BY line_size DESC, lines_owned DESC, a.email ASC`,
		sumExpr(s.backend, "o.line_count"), sumExpr(s.backend, "o.line_size"), likeEscape))

	var sums []authorSums
	if err := sqlx.SelectContext(ctx, s.db, &sums, query, projectID, prefixPattern(pathPrefix)); err != nil {
		return nil, wrapStorageErr("ownership shares", err)
	}

	var totalSize, totalLines int64
	for _, sum := range sums {
		totalSize += sum.LineSize
		totalLines += sum.LinesOwned
	}

	shares := make([]schema.OwnershipShare, len(sums))
	for i, sum := range sums {
		share := schema.OwnershipShare{
			AuthorID:   sum.AuthorID,
			Name:       sum.Name,
			Email:      sum.Email,
			LinesOwned: sum.LinesOwned,
			LineSize:   sum.LineSize,
		}
		switch {
		case totalSize > 0:
			share.Share = float64(sum.LineSize) / float64(totalSize)
		case totalLines > 0:
			share.Share = float64(sum.LinesOwned) / float64(totalLines)
		}
		shares[i] = share
	}
	return shares, nil
}

// churnRow is one author's sums over the changes relation.
type churnRow struct {
	AuthorID      int64  `db:"author_id"`
	Name          string `db:"name"`
	Email         string `db:"email"`
	Commits       int    `db:"commits"`
	ChangesCount  int64  `db:"changes_count"`
	ChangesSize   int64  `db:"changes_size"`
	LinesAdded    int64  `db:"lines_added"`
	LinesModified int64  `db:"lines_modified"`
	FilesAdded    int64  `db:"files_added"`
	FilesDeleted  int64  `db:"files_deleted"`
	FilesModified int64  `db:"files_modified"`
}

// DeveloperChurn sums each author's recorded contributions. Authors with none report zeros.
func (s *Store) DeveloperChurn(ctx context.Context, projectID int64) ([]schema.DeveloperChurn, error) {
	sum := func(col string) string { return sumExpr(s.backend, "ch."+col) }
	query := s.db.Rebind(fmt.Sprintf(`
		SELECT a.id AS author_id, a.name AS name, a.email AS email,
			COUNT(ch.hash) AS commits,
			%s AS changes_count, %s AS changes_size,
			%s AS lines_added, %s AS lines_modified,
			%s AS files_added, %s AS files_deleted, %s AS files_modified
		FROM authors a
		LEFT JOIN changes ch ON ch.author_id = a.id AND ch.project_id = a.project_id
		WHERE a.project_id = ?
		GROUP BY a.id, a.name, a.email
		ORDER BY changes_size DESC, a.email ASC`,
		sum("changes_count"), sum("changes_size"), sum("lines_added"), sum("lines_modified"),
		sum("file_added"), sum("file_deleted"), sum("file_modified")))

	var rows []churnRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, projectID); err != nil {
		return nil, wrapStorageErr("developer churn", err)
	}

	churn := make([]schema.DeveloperChurn, len(rows))
	for i, r := range rows {
		churn[i] = schema.DeveloperChurn(r)
	}
	return churn, nil
}

// overviewCounts holds the scalar counts of a project overview.
type overviewCounts struct {
	Authors      int   `db:"authors"`
	Commits      int   `db:"commits"`
	TrackedPaths int   `db:"tracked_paths"`
	BlameTargets int   `db:"blame_targets"`
	OwnedLines   int64 `db:"owned_lines"`
}

// ProjectOverview summarizes the ledger of one project.
func (s *Store) ProjectOverview(ctx context.Context, projectID int64) (schema.ProjectOverview, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return schema.ProjectOverview{}, err
	}

	query := s.db.Rebind(fmt.Sprintf(`
		SELECT
			(SELECT COUNT(*) FROM authors WHERE project_id = ?) AS authors,
			(SELECT COUNT(*) FROM commits WHERE project_id = ?) AS commits,
			(SELECT COUNT(DISTINCT file_path) FROM file_revisions WHERE project_id = ?) AS tracked_paths,
			(SELECT COUNT(*) FROM blame_targets WHERE project_id = ?) AS blame_targets,
			(SELECT %s FROM ownership o WHERE o.project_id = ?) AS owned_lines`,
		sumExpr(s.backend, "o.line_count")))

	var counts overviewCounts
	if err := sqlx.GetContext(ctx, s.db, &counts, query, projectID, projectID, projectID, projectID, projectID); err != nil {
		return schema.ProjectOverview{}, wrapStorageErr("project overview", err)
	}

	overview := schema.ProjectOverview{
		Project:      project,
		Authors:      counts.Authors,
		Commits:      counts.Commits,
		TrackedPaths: counts.TrackedPaths,
		BlameTargets: counts.BlameTargets,
		OwnedLines:   counts.OwnedLines,
	}

	var latest struct {
		Hash        string  `db:"hash"`
		CommittedAt int64   `db:"committed_at"`
		ProjectSize int64   `db:"project_size"`
		Stability   float64 `db:"stability"`
	}
	latestQuery := s.db.Rebind(`
		SELECT hash, committed_at, project_size, stability FROM commits
		WHERE project_id = ? ORDER BY committed_at DESC, hash DESC LIMIT 1`)
	found, err := getOptional(ctx, s.db, &latest, latestQuery, projectID)
	if err != nil {
		return schema.ProjectOverview{}, wrapStorageErr("project overview latest commit", err)
	}
	if found {
		overview.LatestCommit = latest.Hash
		overview.LatestTimestamp = fromUnix(latest.CommittedAt)
		overview.LatestSize = latest.ProjectSize
		overview.LatestStability = latest.Stability
	}
	return overview, nil
}
