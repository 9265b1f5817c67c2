package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/blameledger/internal/ingest"
)

// writeIngestCSV writes one row per stream with every batch counter spelled out.
func writeIngestCSV(w io.Writer, reports []ingest.Report) error {
	header := []string{
		"run_id", "source", "project", "units",
		"commits_written", "commits_skipped", "revisions_written", "revisions_skipped",
		"changes_written", "changes_skipped", "ownership_written", "ownership_skipped",
		"blame_targets", "cleared", "rejected", "duration_ms",
	}
	itoa := strconv.Itoa
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			row := []string{
				r.RunID, r.Source, r.Project.Name, itoa(r.Units),
				itoa(r.Commits.Written), itoa(r.Commits.Skipped),
				itoa(r.Revisions.Written), itoa(r.Revisions.Skipped),
				itoa(r.Changes.Written), itoa(r.Changes.Skipped),
				itoa(r.Ownership.Written), itoa(r.Ownership.Skipped),
				itoa(r.BlameTargets), itoa(r.Cleared), itoa(r.Rejected()),
				strconv.FormatInt(r.Duration.Milliseconds(), 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
