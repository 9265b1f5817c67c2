package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
)

// writeSeriesCSV writes a commit size series. Stability is written exactly as stored.
func writeSeriesCSV(w io.Writer, series []schema.CommitSize) error {
	header := []string{"commit_hash", "author_name", "author_email", "timestamp", "project_size", "stability"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range series {
			row := []string{
				p.CommitHash,
				p.AuthorName,
				p.AuthorEmail,
				p.Timestamp.Format(contract.DateTimeFormat),
				strconv.FormatInt(p.ProjectSize, 10),
				formatFloat(p.Stability),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeWindowCSV writes one row; the bounds are empty when the path has no revisions.
func writeWindowCSV(w io.Writer, window schema.PathWindow) error {
	header := []string{"path", "found", "first_hash", "first_time", "last_hash", "last_time"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		row := []string{window.Path, strconv.FormatBool(window.Found), "", "", "", ""}
		if window.Found {
			row[2] = window.FirstHash
			row[3] = window.FirstTime.Format(contract.DateTimeFormat)
			row[4] = window.LastHash
			row[5] = window.LastTime.Format(contract.DateTimeFormat)
		}
		return cw.Write(row)
	})
}
