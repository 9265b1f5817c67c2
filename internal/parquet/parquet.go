// Package parquet exports ledger data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/blameledger/schema"
	"github.com/parquet-go/parquet-go"
)

// Ownership is one author's share of one file-state.
// This struct maps to the ownership table joined with its author and blame target.
type Ownership struct {
	// Project is the project name
	Project string `parquet:"project,snappy,dict"`

	// FilePath is the path of the file-state
	FilePath string `parquet:"file_path,snappy,dict"`

	// FileHash is the content hash of the file-state
	FileHash string `parquet:"file_hash,snappy"`

	AuthorName  string `parquet:"author_name,snappy,dict"`
	AuthorEmail string `parquet:"author_email,snappy,dict"`

	// LineCount is the number of lines the author owns in the file-state
	LineCount int32 `parquet:"line_count,snappy"`

	// LineSize is the size of those lines
	LineSize int64 `parquet:"line_size,snappy"`

	// TotalLineSize is the size of every attributed line of the file-state
	TotalLineSize int64 `parquet:"total_line_size,snappy"`

	// LineMap is the encoded [commit, line] pairs (nullable when omitted)
	LineMap *string `parquet:"line_map,optional,snappy"`
}

// CommitSize is one point of a project size timeline.
type CommitSize struct {
	Project     string    `parquet:"project,snappy,dict"`
	CommitHash  string    `parquet:"commit_hash,snappy"`
	AuthorName  string    `parquet:"author_name,snappy,dict"`
	AuthorEmail string    `parquet:"author_email,snappy,dict"`
	Timestamp   time.Time `parquet:"timestamp,snappy"`
	ProjectSize int64     `parquet:"project_size,snappy"`
	Stability   float64   `parquet:"stability,snappy"`
}

// WriteOwnershipParquet writes ownership rows to a Parquet file.
func WriteOwnershipParquet(data []Ownership, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteCommitSizesParquet writes a commit size timeline to a Parquet file.
func WriteCommitSizesParquet(data []CommitSize, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using a schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the row groups and the footer
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertOwnershipEntries converts ledger ownership entries for Parquet export.
// The encoded line map is only kept when withLineMap is set.
func ConvertOwnershipEntries(project string, entries []schema.OwnershipEntry, withLineMap bool) []Ownership {
	result := make([]Ownership, len(entries))
	for i, e := range entries {
		row := Ownership{
			Project:       project,
			FilePath:      e.FilePath,
			FileHash:      e.FileHash,
			AuthorName:    e.AuthorName,
			AuthorEmail:   e.AuthorEmail,
			LineCount:     int32(e.LineCount),
			LineSize:      e.LineSize,
			TotalLineSize: e.TotalLineSize,
		}
		if withLineMap {
			lineMap := e.LineMap
			row.LineMap = &lineMap
		}
		result[i] = row
	}
	return result
}

// ConvertCommitSizes converts a commit size series for Parquet export.
func ConvertCommitSizes(project string, series []schema.CommitSize) []CommitSize {
	result := make([]CommitSize, len(series))
	for i, c := range series {
		result[i] = CommitSize{
			Project:     project,
			CommitHash:  c.CommitHash,
			AuthorName:  c.AuthorName,
			AuthorEmail: c.AuthorEmail,
			Timestamp:   c.Timestamp,
			ProjectSize: c.ProjectSize,
			Stability:   c.Stability,
		}
	}
	return result
}
