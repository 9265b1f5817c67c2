package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
)

// WriteTotals outputs developer totals, dispatching based on the output format configured.
func WriteTotals(project schema.Project, totals []schema.DeveloperTotals, cfg *contract.Config, duration time.Duration) error {
	return writeOutput(cfg, "totals", totals,
		func(w io.Writer) error { return writeTotalsCSV(w, totals) },
		func(w io.Writer) error { return writeTotalsTable(w, project, totals, cfg, duration) })
}

// writeTotalsTable prints one row per author, largest owner first.
func writeTotalsTable(w io.Writer, project schema.Project, totals []schema.DeveloperTotals, cfg *contract.Config, duration time.Duration) error {
	_, _ = contract.HeaderColor.Fprintf(w, "Line ownership of %s\n", project.Name)

	table := newTable(w, []string{"Rank", "Author", "Email", "Lines", "Size", "Files"})
	nameWidth := getMaxColumnWidth(cfg, 60)

	var data [][]string
	var lines int64
	files := make(map[string]struct{})
	for i, d := range totals {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.OwnerColor.Sprint(contract.TruncatePath(d.Name, nameWidth)),
			d.Email,
			formatCount(d.LinesOwned),
			formatSize(d.LineSize),
			formatCount(int64(d.FileCount)),
		})
		lines += d.LinesOwned
		for _, path := range d.OwnedFilePaths {
			files[path] = struct{}{}
		}
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d authors own %s lines across %d files. Computed in %v.\n",
		len(totals), formatCount(lines), len(files), duration.Round(time.Millisecond))
	return err
}

// WriteShares outputs ownership shares, dispatching based on the output format configured.
func WriteShares(project schema.Project, prefix string, shares []schema.OwnershipShare, cfg *contract.Config, duration time.Duration) error {
	return writeOutput(cfg, "shares", shares,
		func(w io.Writer) error { return writeSharesCSV(w, shares) },
		func(w io.Writer) error { return writeSharesTable(w, project, prefix, shares, cfg, duration) })
}

// writeSharesTable prints the split of a subtree between its owners.
func writeSharesTable(w io.Writer, project schema.Project, prefix string, shares []schema.OwnershipShare, cfg *contract.Config, duration time.Duration) error {
	_, _ = contract.HeaderColor.Fprintf(w, "Ownership shares of %s (%s)\n", project.Name, scopeLabel(prefix))
	if len(shares) == 0 {
		_, err := fmt.Fprintln(w, "No owned lines under this prefix.")
		return err
	}

	table := newTable(w, []string{"Rank", "Author", "Email", "Lines", "Size", "Share"})
	nameWidth := getMaxColumnWidth(cfg, 60)

	var data [][]string
	for i, s := range shares {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.OwnerColor.Sprint(contract.TruncatePath(s.Name, nameWidth)),
			s.Email,
			formatCount(s.LinesOwned),
			formatSize(s.LineSize),
			formatShare(s.Share),
		})
	}
	if err := renderTable(table, data); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%d owners. Computed in %v.\n", len(shares), duration.Round(time.Millisecond))
	return err
}
