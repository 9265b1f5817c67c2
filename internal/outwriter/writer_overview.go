package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
)

// writeOverviewCSV writes the overview as a single row.
func writeOverviewCSV(w io.Writer, o schema.ProjectOverview) error {
	header := []string{
		"project", "root_path", "authors", "commits", "tracked_paths", "blame_targets",
		"owned_lines", "latest_commit", "latest_timestamp", "latest_size", "latest_stability",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		latest := ""
		if o.LatestCommit != "" {
			latest = o.LatestTimestamp.Format(contract.DateTimeFormat)
		}
		return cw.Write([]string{
			o.Project.Name,
			o.Project.RootPath,
			strconv.Itoa(o.Authors),
			strconv.Itoa(o.Commits),
			strconv.Itoa(o.TrackedPaths),
			strconv.Itoa(o.BlameTargets),
			strconv.FormatInt(o.OwnedLines, 10),
			o.LatestCommit,
			latest,
			strconv.FormatInt(o.LatestSize, 10),
			formatFloat(o.LatestStability),
		})
	})
}

// writeStatusCSV writes one row per ledger table.
func writeStatusCSV(w io.Writer, status schema.LedgerStatus) error {
	return writeCSVWithHeader(w, []string{"backend", "table", "rows"}, func(cw *csv.Writer) error {
		for _, table := range schema.AllTables {
			row := []string{status.Backend, table, strconv.FormatInt(status.TableSizes[table], 10)}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
