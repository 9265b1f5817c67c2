package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/blameledger/schema"
)

// writeChurnCSV writes one row per author.
func writeChurnCSV(w io.Writer, churn []schema.DeveloperChurn) error {
	header := []string{
		"author_id", "name", "email", "commits", "changes_count", "changes_size",
		"lines_added", "lines_modified", "files_added", "files_deleted", "files_modified",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range churn {
			row := []string{
				strconv.FormatInt(c.AuthorID, 10),
				c.Name,
				c.Email,
				strconv.Itoa(c.Commits),
				strconv.FormatInt(c.ChangesCount, 10),
				strconv.FormatInt(c.ChangesSize, 10),
				strconv.FormatInt(c.LinesAdded, 10),
				strconv.FormatInt(c.LinesModified, 10),
				strconv.FormatInt(c.FilesAdded, 10),
				strconv.FormatInt(c.FilesDeleted, 10),
				strconv.FormatInt(c.FilesModified, 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
