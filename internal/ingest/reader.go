package ingest

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedUnit means a stream line is not a valid unit.
var ErrMalformedUnit = errors.New("malformed unit")

//go:embed unit.schema.json
var unitSchemaJSON []byte

// unitSchema is compiled once per process.
var unitSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(unitSchemaJSON))
})

// Reader reads units from a JSON Lines stream. Blank lines are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader returns a Reader accepting lines of at most maxUnitSize bytes.
func NewReader(r io.Reader, maxUnitSize int) *Reader {
	scanner := bufio.NewScanner(r)
	initial := min(64*1024, maxUnitSize)
	scanner.Buffer(make([]byte, 0, initial), maxUnitSize)
	return &Reader{scanner: scanner}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next unit, or io.EOF at the end of the stream.
func (r *Reader) Next() (Unit, error) {
	for r.scanner.Scan() {
		r.line++
		data := bytes.TrimSpace(r.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		unit, err := parseUnit(data)
		if err != nil {
			return Unit{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return unit, nil
	}
	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return Unit{}, fmt.Errorf("line %d: %w: exceeds max-unit-size", r.line+1, ErrMalformedUnit)
		}
		return Unit{}, fmt.Errorf("failed to read stream: %w", err)
	}
	return Unit{}, io.EOF
}

// parseUnit validates one line against the unit schema, then decodes it.
func parseUnit(data []byte) (Unit, error) {
	validator, err := unitSchema()
	if err != nil {
		return Unit{}, fmt.Errorf("failed to compile unit schema: %w", err)
	}

	result, err := validator.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Unit{}, fmt.Errorf("%w: %v", ErrMalformedUnit, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
		}
		return Unit{}, fmt.Errorf("%w: %s", ErrMalformedUnit, strings.Join(problems, "; "))
	}

	var unit Unit
	if err := json.Unmarshal(data, &unit); err != nil {
		return Unit{}, fmt.Errorf("%w: %v", ErrMalformedUnit, err)
	}
	return unit, nil
}
