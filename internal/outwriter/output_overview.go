package outwriter

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteOverview outputs a project overview, dispatching based on the output format configured.
func WriteOverview(overview schema.ProjectOverview, cfg *contract.Config) error {
	return writeOutput(cfg, "overview", overview,
		func(w io.Writer) error { return writeOverviewCSV(w, overview) },
		func(w io.Writer) error { return writeOverviewTable(w, overview) })
}

// writeOverviewTable prints the overview as a two-column key/value table.
func writeOverviewTable(w io.Writer, o schema.ProjectOverview) error {
	_, _ = contract.HeaderColor.Fprintf(w, "Overview of %s\n", o.Project.Name)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Fact", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := [][]string{
		{"Root path", o.Project.RootPath},
		{"Authors", formatCount(int64(o.Authors))},
		{"Commits", formatCount(int64(o.Commits))},
		{"Tracked paths", formatCount(int64(o.TrackedPaths))},
		{"File states", formatCount(int64(o.BlameTargets))},
		{"Owned lines", formatCount(o.OwnedLines)},
	}
	if o.LatestCommit != "" {
		data = append(data,
			[]string{"Latest commit", shortHash(o.LatestCommit)},
			[]string{"Latest commit at", fmt.Sprintf("%s (%s)", o.LatestTimestamp.Format(contract.DateTimeFormat), humanize.Time(o.LatestTimestamp))},
			[]string{"Project size", formatSize(o.LatestSize)},
			[]string{"Stability", fmt.Sprintf("%.3f", o.LatestStability)},
		)
	} else {
		data = append(data, []string{"Latest commit", contract.ZeroColor.Sprint("none")})
	}
	return renderTable(table, data)
}

// WriteStatus outputs ledger status, dispatching based on the output format configured.
func WriteStatus(status schema.LedgerStatus, cfg *contract.Config) error {
	return writeOutput(cfg, "status", status,
		func(w io.Writer) error { return writeStatusCSV(w, status) },
		func(w io.Writer) error {
			ledger.PrintLedgerStatus(w, status)
			return nil
		})
}
