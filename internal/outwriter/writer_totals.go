package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/blameledger/schema"
)

// writeTotalsCSV writes developer totals, joining owned paths with "|".
func writeTotalsCSV(w io.Writer, totals []schema.DeveloperTotals) error {
	header := []string{"author_id", "name", "email", "lines_owned", "line_size", "file_count", "owned_file_paths"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range totals {
			row := []string{
				strconv.FormatInt(d.AuthorID, 10),
				d.Name,
				d.Email,
				strconv.FormatInt(d.LinesOwned, 10),
				strconv.FormatInt(d.LineSize, 10),
				strconv.Itoa(d.FileCount),
				strings.Join(d.OwnedFilePaths, "|"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSharesCSV writes ownership shares as exact fractions.
func writeSharesCSV(w io.Writer, shares []schema.OwnershipShare) error {
	header := []string{"author_id", "name", "email", "lines_owned", "line_size", "share"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range shares {
			row := []string{
				strconv.FormatInt(s.AuthorID, 10),
				s.Name,
				s.Email,
				strconv.FormatInt(s.LinesOwned, 10),
				strconv.FormatInt(s.LineSize, 10),
				formatFloat(s.Share),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
