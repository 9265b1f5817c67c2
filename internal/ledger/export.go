package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/parquet"
)

// ExportOptions selects what ExecuteLedgerExport writes.
type ExportOptions struct {
	// Project is the name of the project to export
	Project string

	// OutputFile is the prefix of the generated Parquet files
	OutputFile string

	// WithLineMap keeps the encoded line map of each ownership row
	WithLineMap bool
}

// ExecuteLedgerExport exports the ownership rows and the commit size timeline
// of one project to Parquet files named after opts.OutputFile.
func ExecuteLedgerExport(ctx context.Context, store contract.LedgerStore, opts ExportOptions, w io.Writer) error {
	if opts.OutputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	project, err := store.FindProject(ctx, opts.Project)
	if err != nil {
		return fmt.Errorf("failed to find project %q: %w", opts.Project, err)
	}

	entries, err := store.ListOwnershipEntries(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to retrieve ownership entries: %w", err)
	}
	series, err := store.CommitSizeSeries(ctx, project.ID, "")
	if err != nil {
		return fmt.Errorf("failed to retrieve commit series: %w", err)
	}
	if len(entries) == 0 && len(series) == 0 {
		return fmt.Errorf("no ledger data found to export for project %q", project.Name)
	}

	_, _ = fmt.Fprintf(w, "Exporting ledger of project %s (%s)...\n", project.Name, project.RootPath)

	ownershipFile := opts.OutputFile + ".ownership.parquet"
	rows := parquet.ConvertOwnershipEntries(project.Name, entries, opts.WithLineMap)
	if err := parquet.WriteOwnershipParquet(rows, ownershipFile); err != nil {
		return fmt.Errorf("failed to write ownership: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d ownership rows to: %s\n", len(rows), ownershipFile)

	commitsFile := opts.OutputFile + ".commits.parquet"
	points := parquet.ConvertCommitSizes(project.Name, series)
	if err := parquet.WriteCommitSizesParquet(points, commitsFile); err != nil {
		return fmt.Errorf("failed to write commit series: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d commits to: %s\n", len(points), commitsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with DuckDB, Pandas (via pyarrow) or Apache Spark.")
	return nil
}
