// Package codec encodes the aligned per-line sequences of an ownership record
// into a single stored value.
//
// The stored form is a JSON array of [commitHash, lineID] pairs. An empty
// record encodes to "[]" so it never collides with a missing value.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/huangsam/blameledger/internal/contract"
)

// EmptyLineMap is the encoding of a record with no surviving lines.
const EmptyLineMap = "[]"

type linePair struct {
	Hash string
	Line int
}

func (p linePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Hash, p.Line})
}

func (p *linePair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("line pair must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Hash); err != nil {
		return fmt.Errorf("line pair hash: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Line); err != nil {
		return fmt.Errorf("line pair id: %w", err)
	}
	return nil
}

// EncodeLineMap encodes aligned commit hashes and line ids.
// The result is verified by decoding it again, so a successful return
// guarantees DecodeLineMap yields the same sequences.
func EncodeLineMap(hashes []string, lineIDs []int) (string, error) {
	if len(hashes) != len(lineIDs) {
		return "", fmt.Errorf("%w: %d commit hashes for %d line ids", contract.ErrEncoding, len(hashes), len(lineIDs))
	}
	for i, h := range hashes {
		if !utf8.ValidString(h) {
			return "", fmt.Errorf("%w: commit hash at position %d is not valid UTF-8", contract.ErrEncoding, i)
		}
	}
	if len(hashes) == 0 {
		return EmptyLineMap, nil
	}

	pairs := make([]linePair, len(hashes))
	for i := range hashes {
		pairs[i] = linePair{Hash: hashes[i], Line: lineIDs[i]}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pairs); err != nil {
		return "", fmt.Errorf("%w: %v", contract.ErrEncoding, err)
	}
	encoded := string(bytes.TrimRight(buf.Bytes(), "\n"))

	gotHashes, gotIDs, err := DecodeLineMap(encoded)
	if err != nil {
		return "", err
	}
	if !slices.Equal(gotHashes, hashes) || !slices.Equal(gotIDs, lineIDs) {
		return "", fmt.Errorf("%w: line map does not round-trip", contract.ErrEncoding)
	}
	return encoded, nil
}

// DecodeLineMap decodes a stored line map into aligned sequences.
// The returned slices are never nil.
func DecodeLineMap(encoded string) ([]string, []int, error) {
	if encoded == "" {
		return nil, nil, fmt.Errorf("%w: empty line map", contract.ErrEncoding)
	}
	var pairs []linePair
	if err := json.Unmarshal([]byte(encoded), &pairs); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contract.ErrEncoding, err)
	}
	if pairs == nil {
		return nil, nil, fmt.Errorf("%w: line map is not an array", contract.ErrEncoding)
	}
	hashes := make([]string, len(pairs))
	lineIDs := make([]int, len(pairs))
	for i, p := range pairs {
		hashes[i] = p.Hash
		lineIDs[i] = p.Line
	}
	return hashes, lineIDs, nil
}
