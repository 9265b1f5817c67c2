// Package schema has the models shared by every part of blameledger.
package schema

import "time"

// Project is the root of all other ledger facts.
// It is unique by (Name, RootPath) and immutable once created.
type Project struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	RootPath string `db:"root_path" json:"root_path"`
}

// Author is a developer within one project, unique by (ProjectID, Email).
type Author struct {
	ID        int64  `db:"id" json:"id"`
	ProjectID int64  `db:"project_id" json:"project_id"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
}

// ChangeCounts counts added, deleted and modified units (files or lines).
type ChangeCounts struct {
	Added    int `json:"added"`
	Deleted  int `json:"deleted"`
	Modified int `json:"modified"`
}

// Commit is an append-only fact, unique by (Hash, ProjectID).
// Stability is computed by the mining collaborator and only stored here.
type Commit struct {
	Hash        string       `json:"hash"`
	ProjectID   int64        `json:"project_id"`
	AuthorID    int64        `json:"author_id"`
	Timestamp   time.Time    `json:"timestamp"`
	ProjectSize int64        `json:"project_size"`
	Stability   float64      `json:"stability"`
	Files       ChangeCounts `json:"files"`
	Lines       ChangeCounts `json:"lines"`
	ChangeCount int          `json:"change_count"`
}

// FileRevision states that FilePath existed as of CommitHash.
// It is unique by (ProjectID, FilePath, CommitHash).
type FileRevision struct {
	ProjectID  int64     `json:"project_id"`
	FilePath   string    `json:"file_path"`
	CommitHash string    `json:"commit_hash"`
	Timestamp  time.Time `json:"timestamp"`
}

// Change is one author's contribution to one commit, unique by (ProjectID, AuthorID, Hash).
type Change struct {
	Hash          string `db:"hash" json:"hash"`
	AuthorID      int64  `db:"author_id" json:"author_id"`
	ProjectID     int64  `db:"project_id" json:"project_id"`
	ChangesCount  int    `db:"changes_count" json:"changes_count"`
	ChangesSize   int64  `db:"changes_size" json:"changes_size"`
	LinesAdded    int    `db:"lines_added" json:"lines_added"`
	LinesModified int    `db:"lines_modified" json:"lines_modified"`
	FileAdded     int    `db:"file_added" json:"file_added"`
	FileDeleted   int    `db:"file_deleted" json:"file_deleted"`
	FileModified  int    `db:"file_modified" json:"file_modified"`
}

// BlameTarget is a file-state (path + content hash) subject to attribution.
// TotalLineSize is derived from the ownership rows of the target.
type BlameTarget struct {
	ID            int64  `db:"id" json:"id"`
	ProjectID     int64  `db:"project_id" json:"project_id"`
	FilePath      string `db:"file_path" json:"file_path"`
	FileHash      string `db:"file_hash" json:"file_hash"`
	TotalLineSize int64  `db:"total_line_size" json:"total_line_size"`
}

// OwnershipRecord holds the lines one author owns in one file-state.
// CommitHashes[i] is the commit that last touched line LineIDs[i].
type OwnershipRecord struct {
	ProjectID     int64    `json:"project_id"`
	AuthorID      int64    `json:"author_id"`
	BlameTargetID int64    `json:"blame_target_id"`
	CommitHashes  []string `json:"commit_hashes"`
	LineIDs       []int    `json:"line_ids"`
	LineSize      int64    `json:"line_size"`
}

// LineCount returns the number of attributed lines.
func (r OwnershipRecord) LineCount() int {
	return len(r.LineIDs)
}

// Key identifies the record by its natural key.
func (r OwnershipRecord) Key() OwnershipKey {
	return OwnershipKey{ProjectID: r.ProjectID, AuthorID: r.AuthorID, BlameTargetID: r.BlameTargetID}
}

// OwnershipKey is the natural key of an OwnershipRecord.
type OwnershipKey struct {
	ProjectID     int64
	AuthorID      int64
	BlameTargetID int64
}

// RevisionWindow bounds the analyzed lifetime of a path.
type RevisionWindow struct {
	FirstHash string    `json:"first_hash"`
	FirstTime time.Time `json:"first_time"`
	LastHash  string    `json:"last_hash"`
	LastTime  time.Time `json:"last_time"`
}

// CommitWithAuthor is one element of a commit series.
type CommitWithAuthor struct {
	Commit Commit `json:"commit"`
	Author Author `json:"author"`
}

// OwnershipEntry is an ownership row joined with its author and file-state.
type OwnershipEntry struct {
	FilePath      string `db:"file_path" json:"file_path"`
	FileHash      string `db:"file_hash" json:"file_hash"`
	AuthorName    string `db:"author_name" json:"author_name"`
	AuthorEmail   string `db:"author_email" json:"author_email"`
	LineCount     int    `db:"line_count" json:"line_count"`
	LineSize      int64  `db:"line_size" json:"line_size"`
	LineMap       string `db:"line_map" json:"line_map"`
	TotalLineSize int64  `db:"total_line_size" json:"total_line_size"`
}
