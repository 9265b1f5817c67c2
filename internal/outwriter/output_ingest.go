package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ingest"
	"github.com/huangsam/blameledger/schema"
)

// maxListedRejections caps the rejected records listed under the ingest table.
const maxListedRejections = 10

// WriteIngestReports outputs ingestion totals, dispatching based on the output format configured.
func WriteIngestReports(reports []ingest.Report, cfg *contract.Config, duration time.Duration) error {
	return writeOutput(cfg, "ingest report", reports,
		func(w io.Writer) error { return writeIngestCSV(w, reports) },
		func(w io.Writer) error { return writeIngestTable(w, reports, cfg, duration) })
}

// writtenSkipped renders a batch as "written/skipped".
func writtenSkipped(r schema.BatchReport) string {
	return fmt.Sprintf("%d/%d", r.Written, r.Skipped)
}

// writeIngestTable prints one row per stream, then the first rejected records.
func writeIngestTable(w io.Writer, reports []ingest.Report, cfg *contract.Config, duration time.Duration) error {
	table := newTable(w, []string{"Source", "Project", "Units", "Commits", "Revisions", "Changes", "Ownership", "Cleared", "Rejected"})
	sourceWidth := getMaxColumnWidth(cfg, 90)

	var data [][]string
	var rejected []schema.RejectedRecord
	for _, r := range reports {
		data = append(data, []string{
			contract.TruncatePath(r.Source, sourceWidth),
			r.Project.Name,
			formatCount(int64(r.Units)),
			writtenSkipped(r.Commits),
			writtenSkipped(r.Revisions),
			writtenSkipped(r.Changes),
			writtenSkipped(r.Ownership),
			formatCount(int64(r.Cleared)),
			formatCount(int64(r.Rejected())),
		})
		for _, batch := range []schema.BatchReport{r.Commits, r.Revisions, r.Changes, r.Ownership} {
			rejected = append(rejected, batch.Rejected...)
		}
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	if len(rejected) > 0 {
		_, _ = contract.WarnColor.Fprintf(w, "%d records rejected:\n", len(rejected))
		for _, rec := range rejected[:min(len(rejected), maxListedRejections)] {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", rec.Key, rec.Reason)
		}
		if len(rejected) > maxListedRejections {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", len(rejected)-maxListedRejections)
		}
	}

	_, err := fmt.Fprintf(w, "Ingested %d streams in %v with %d workers. Ledger backend: %s\n",
		len(reports), duration.Round(time.Millisecond), cfg.Workers, cfg.Backend)
	return err
}
