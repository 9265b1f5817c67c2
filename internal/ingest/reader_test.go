package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `{"project":{"name":"demo","root_path":"/src/demo"}}

{"commit":{"hash":"c1","author":{"name":"Alice","email":"alice@example.com"},"timestamp":"2024-01-02T03:04:05Z","project_size":120,"stability":0.5,"files":{"added":1},"lines":{"added":10},"change_count":1,"paths":["f.go"],"changes":[{"author":{"name":"Alice","email":"alice@example.com"},"changes_count":1,"changes_size":10,"lines_added":10,"file_added":1}]}}
{"blame":{"path":"f.go","file_hash":"h1","authors":[{"name":"Alice","email":"alice@example.com","lines":[["c1",1],["c1",2]],"line_size":24}]}}
`

func TestReader_Next(t *testing.T) {
	r := NewReader(strings.NewReader(sampleStream), 1<<20)

	unit, err := r.Next()
	require.NoError(t, err)
	require.NotNil(t, unit.Project)
	assert.Equal(t, "project", unit.Kind())
	assert.Equal(t, "demo", unit.Project.Name)
	assert.Equal(t, "/src/demo", unit.Project.RootPath)

	unit, err = r.Next()
	require.NoError(t, err)
	require.NotNil(t, unit.Commit)
	assert.Equal(t, 3, r.Line(), "blank lines are skipped but counted")
	c := unit.Commit
	assert.Equal(t, "c1", c.Hash)
	assert.Equal(t, "alice@example.com", c.Author.Email)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), c.Timestamp.UTC())
	assert.Equal(t, int64(120), c.ProjectSize)
	assert.Equal(t, 10, c.Lines.Added)
	assert.Equal(t, []string{"f.go"}, c.Paths)
	require.Len(t, c.Changes, 1)
	assert.Equal(t, int64(10), c.Changes[0].ChangesSize)

	unit, err = r.Next()
	require.NoError(t, err)
	require.NotNil(t, unit.Blame)
	assert.Equal(t, "blame", unit.Kind())
	require.Len(t, unit.Blame.Authors, 1)
	assert.Equal(t, []LinePair{{"c1", 1}, {"c1", 2}}, unit.Blame.Authors[0].Lines)
	assert.Equal(t, int64(24), unit.Blame.Authors[0].LineSize)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_MalformedUnits(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `{"project":`},
		{"no unit", `{}`},
		{"two units", `{"project":{"name":"a"},"blame":{"path":"x","file_hash":"h","authors":[]}}`},
		{"unknown unit", `{"tag":{"name":"v1"}}`},
		{"project without name", `{"project":{"root_path":"/x"}}`},
		{"commit without hash", `{"commit":{"author":{"email":"a@x"},"timestamp":"2024-01-01T00:00:00Z"}}`},
		{"commit bad timestamp", `{"commit":{"hash":"c1","author":{"email":"a@x"},"timestamp":"yesterday"}}`},
		{"negative size", `{"commit":{"hash":"c1","author":{"email":"a@x"},"timestamp":"2024-01-01T00:00:00Z","project_size":-1}}`},
		{"author without email", `{"blame":{"path":"x","file_hash":"h","authors":[{"name":"a","lines":[]}]}}`},
		{"short line pair", `{"blame":{"path":"x","file_hash":"h","authors":[{"email":"a@x","lines":[["c1"]]}]}}`},
		{"line pair wrong types", `{"blame":{"path":"x","file_hash":"h","authors":[{"email":"a@x","lines":[[1,"c1"]]}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.line+"\n"), 1<<20)
			_, err := r.Next()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedUnit)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestReader_LineTooLong(t *testing.T) {
	long := `{"project":{"name":"` + strings.Repeat("x", 4096) + `"}}`
	r := NewReader(strings.NewReader(long), 1024)
	_, err := r.Next()
	assert.ErrorIs(t, err, ErrMalformedUnit)
}

func TestReader_ReadError(t *testing.T) {
	r := NewReader(io.MultiReader(strings.NewReader(`{"project":{"name":"a"}}`+"\n"), failingReader{}), 1<<20)
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedUnit)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLinePair_JSON(t *testing.T) {
	data, err := LinePair{Commit: "abc", Line: 7}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["abc",7]`, string(data))

	var p LinePair
	require.NoError(t, p.UnmarshalJSON([]byte(`["def",9]`)))
	assert.Equal(t, LinePair{Commit: "def", Line: 9}, p)
	assert.Error(t, p.UnmarshalJSON([]byte(`["def",9,1]`)))
	assert.Error(t, p.UnmarshalJSON([]byte(`{"commit":"def"}`)))
}

func TestUnitKind_Empty(t *testing.T) {
	assert.Equal(t, "empty", Unit{}.Kind())
}
