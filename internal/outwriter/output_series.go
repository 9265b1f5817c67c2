package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
)

// WriteSeries outputs a commit size series, dispatching based on the output format configured.
func WriteSeries(project schema.Project, prefix string, series []schema.CommitSize, cfg *contract.Config, duration time.Duration) error {
	return writeOutput(cfg, "series", series,
		func(w io.Writer) error { return writeSeriesCSV(w, series) },
		func(w io.Writer) error { return writeSeriesTable(w, project, prefix, series, cfg, duration) })
}

// writeSeriesTable prints one row per commit, oldest first.
func writeSeriesTable(w io.Writer, project schema.Project, prefix string, series []schema.CommitSize, cfg *contract.Config, duration time.Duration) error {
	_, _ = contract.HeaderColor.Fprintf(w, "Size over time of %s (%s)\n", project.Name, scopeLabel(prefix))

	table := newTable(w, []string{"#", "Commit", "Author", "Date", "Project Size", "Stability"})
	nameWidth := getMaxColumnWidth(cfg, 70)

	var data [][]string
	for i, p := range series {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			shortHash(p.CommitHash),
			contract.TruncatePath(p.AuthorName, nameWidth),
			p.Timestamp.Format(time.DateOnly),
			formatSize(p.ProjectSize),
			fmt.Sprintf("%.3f", p.Stability),
		})
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d commits. Computed in %v.\n", len(series), duration.Round(time.Millisecond))
	return err
}

// WriteWindow outputs the revision window of a path, dispatching based on the output format configured.
func WriteWindow(window schema.PathWindow, cfg *contract.Config) error {
	return writeOutput(cfg, "window", window,
		func(w io.Writer) error { return writeWindowCSV(w, window) },
		func(w io.Writer) error { return writeWindowTable(w, window, cfg) })
}

// writeWindowTable prints the first and last revision of a path.
func writeWindowTable(w io.Writer, window schema.PathWindow, cfg *contract.Config) error {
	path := contract.TruncatePath(window.Path, getMaxColumnWidth(cfg, 0))
	if !window.Found {
		_, err := fmt.Fprintf(w, "No revisions recorded for %s\n", path)
		return err
	}
	_, _ = contract.HeaderColor.Fprintf(w, "Revision window of %s\n", path)

	table := newTable(w, []string{"Bound", "Commit", "Date"})
	data := [][]string{
		{"First", shortHash(window.FirstHash), window.FirstTime.Format(contract.DateTimeFormat)},
		{"Last", shortHash(window.LastHash), window.LastTime.Format(contract.DateTimeFormat)},
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	span := strings.TrimSpace(humanize.RelTime(window.FirstTime, window.LastTime, "", ""))
	_, err := fmt.Fprintf(w, "Tracked for %s.\n", span)
	return err
}
