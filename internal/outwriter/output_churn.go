package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
)

// WriteChurn outputs developer churn, dispatching based on the output format configured.
func WriteChurn(project schema.Project, churn []schema.DeveloperChurn, cfg *contract.Config, duration time.Duration) error {
	return writeOutput(cfg, "churn", churn,
		func(w io.Writer) error { return writeChurnCSV(w, churn) },
		func(w io.Writer) error { return writeChurnTable(w, project, churn, cfg, duration) })
}

// writeChurnTable prints the recorded contributions of every author.
func writeChurnTable(w io.Writer, project schema.Project, churn []schema.DeveloperChurn, cfg *contract.Config, duration time.Duration) error {
	_, _ = contract.HeaderColor.Fprintf(w, "Churn of %s\n", project.Name)

	table := newTable(w, []string{"Author", "Commits", "Changes", "Changed", "Lines +", "Lines ~", "Files +", "Files -", "Files ~"})
	nameWidth := getMaxColumnWidth(cfg, 85)

	var data [][]string
	for _, c := range churn {
		data = append(data, []string{
			contract.OwnerColor.Sprint(contract.TruncatePath(c.Name, nameWidth)),
			formatCount(int64(c.Commits)),
			formatCount(c.ChangesCount),
			formatSize(c.ChangesSize),
			formatCount(c.LinesAdded),
			formatCount(c.LinesModified),
			formatCount(c.FilesAdded),
			formatCount(c.FilesDeleted),
			formatCount(c.FilesModified),
		})
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d authors. Computed in %v.\n", len(churn), duration.Round(time.Millisecond))
	return err
}
