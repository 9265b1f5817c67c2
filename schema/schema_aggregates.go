package schema

import "time"

// DeveloperTotals summarizes what one author currently owns in a project.
type DeveloperTotals struct {
	AuthorID       int64    `json:"author_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	LinesOwned     int64    `json:"lines_owned"`
	LineSize       int64    `json:"line_size"`
	FileCount      int      `json:"file_count"`
	OwnedFilePaths []string `json:"owned_file_paths"`
}

// CommitSize is one point of a size-over-time series.
type CommitSize struct {
	CommitHash  string    `json:"commit_hash"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Timestamp   time.Time `json:"timestamp"`
	ProjectSize int64     `json:"project_size"`
	Stability   float64   `json:"stability"`
}

// OwnershipShare is an author's slice of a subtree.
type OwnershipShare struct {
	AuthorID   int64   `json:"author_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	LinesOwned int64   `json:"lines_owned"`
	LineSize   int64   `json:"line_size"`
	Share      float64 `json:"share"` // fraction of the subtree line size, 0-1
}

// DeveloperChurn sums an author's contributions from the changes relation.
type DeveloperChurn struct {
	AuthorID      int64  `json:"author_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Commits       int    `json:"commits"`
	ChangesCount  int64  `json:"changes_count"`
	ChangesSize   int64  `json:"changes_size"`
	LinesAdded    int64  `json:"lines_added"`
	LinesModified int64  `json:"lines_modified"`
	FilesAdded    int64  `json:"files_added"`
	FilesDeleted  int64  `json:"files_deleted"`
	FilesModified int64  `json:"files_modified"`
}

// ProjectOverview is a one-shot summary of a project's ledger.
type ProjectOverview struct {
	Project         Project   `json:"project"`
	Authors         int       `json:"authors"`
	Commits         int       `json:"commits"`
	TrackedPaths    int       `json:"tracked_paths"`
	BlameTargets    int       `json:"blame_targets"`
	OwnedLines      int64     `json:"owned_lines"`
	LatestCommit    string    `json:"latest_commit"`
	LatestTimestamp time.Time `json:"latest_timestamp"`
	LatestSize      int64     `json:"latest_size"`
	LatestStability float64   `json:"latest_stability"`
}

// PathWindow is the revision window of one path. Found is false when the path has no revisions.
type PathWindow struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
	RevisionWindow
}
