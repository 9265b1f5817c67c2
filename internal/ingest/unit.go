package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/blameledger/schema"
)

// Unit is one line of a mined-history stream. Exactly one field is set.
type Unit struct {
	Project *ProjectUnit `json:"project,omitempty"`
	Commit  *CommitUnit  `json:"commit,omitempty"`
	Blame   *BlameUnit   `json:"blame,omitempty"`
}

// Kind names the unit for logs and metrics.
func (u Unit) Kind() string {
	switch {
	case u.Project != nil:
		return "project"
	case u.Commit != nil:
		return "commit"
	case u.Blame != nil:
		return "blame"
	default:
		return "empty"
	}
}

// ProjectUnit opens a stream. It must be the first unit.
type ProjectUnit struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
}

// AuthorRef identifies an author by email; the name is informational.
type AuthorRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CommitUnit is one mined commit with the paths it touched and
// the per-author contributions it contains.
type CommitUnit struct {
	Hash        string              `json:"hash"`
	Author      AuthorRef           `json:"author"`
	Timestamp   time.Time           `json:"timestamp"`
	ProjectSize int64               `json:"project_size"`
	Stability   float64             `json:"stability"`
	Files       schema.ChangeCounts `json:"files"`
	Lines       schema.ChangeCounts `json:"lines"`
	ChangeCount int                 `json:"change_count"`
	Paths       []string            `json:"paths,omitempty"`
	Changes     []ChangeUnit        `json:"changes,omitempty"`
}

// ChangeUnit is one author's contribution to the enclosing commit.
type ChangeUnit struct {
	Author        AuthorRef `json:"author"`
	ChangesCount  int       `json:"changes_count"`
	ChangesSize   int64     `json:"changes_size"`
	LinesAdded    int       `json:"lines_added"`
	LinesModified int       `json:"lines_modified"`
	FileAdded     int       `json:"file_added"`
	FileDeleted   int       `json:"file_deleted"`
	FileModified  int       `json:"file_modified"`
}

// BlameUnit is the complete attribution of one file-state.
type BlameUnit struct {
	Path     string        `json:"path"`
	FileHash string        `json:"file_hash"`
	Authors  []BlameAuthor `json:"authors"`
}

// BlameAuthor holds the lines of a file-state last touched by one author.
type BlameAuthor struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Lines    []LinePair `json:"lines"`
	LineSize int64      `json:"line_size"`
}

// LinePair is a line id and the commit that last touched it, as ["hash", line].
type LinePair struct {
	Commit string
	Line   int
}

// MarshalJSON writes the pair as a two-element array.
func (p LinePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Commit, p.Line})
}

// UnmarshalJSON reads a two-element array.
func (p *LinePair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("line pair must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Commit); err != nil {
		return fmt.Errorf("line pair commit: %w", err)
	}
	return json.Unmarshal(raw[1], &p.Line)
}
