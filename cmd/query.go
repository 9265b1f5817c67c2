package cmd

import (
	"github.com/huangsam/blameledger/core"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/internal/outwriter"
	"github.com/spf13/cobra"
)

// totalsCmd shows what every author owns.
var totalsCmd = &cobra.Command{
	Use:   "totals",
	Short: "Show owned lines, size and files per author",
	Long: `Sum the ownership rows of every author in a project.

Authors who no longer own any line are still listed with zero totals.

Examples:
  blameledger totals --project api
  blameledger totals --root-path ~/src/api --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTotals(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Error computing developer totals", err)
		}
	},
}

// seriesCmd shows how project size evolved.
var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Show project size and stability per commit",
	Long: `List the commits touching a path prefix, oldest first, with the project
size and stability recorded at each of them.

Examples:
  blameledger series --project api
  blameledger series --project api --prefix internal/ --output csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeries(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Error computing commit series", err)
		}
	},
}

// windowCmd shows the first and last revision of one path.
var windowCmd = &cobra.Command{
	Use:   "window <path>",
	Short: "Show the first and last recorded revision of a file",
	Long: `Report the earliest and latest commit that touched a path.

Examples:
  blameledger window --project api cmd/root.go`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteWindow(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter(), args[0]); err != nil {
			contract.LogFatal("Error querying revision window", err)
		}
	},
}

// sharesCmd splits ownership of a subtree between authors.
var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Show each author's share of the owned lines under a prefix",
	Long: `Split the owned lines of a subtree between its authors.

Shares are relative to line size, or to line count when the subtree
has no recorded size.

Examples:
  blameledger shares --project api --prefix internal/ledger/`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteShares(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Error computing ownership shares", err)
		}
	},
}

// churnCmd shows the recorded contributions of every author.
var churnCmd = &cobra.Command{
	Use:   "churn",
	Short: "Show commits, changed lines and files per author",
	Long: `Sum the recorded per-commit contributions of every author in a project.

Examples:
  blameledger churn --project api --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteChurn(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Error computing developer churn", err)
		}
	},
}

// overviewCmd summarizes one project.
var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize the ledger of a project",
	Long: `Show author, commit, path and ownership counts of a project together
with its latest recorded commit.

Examples:
  blameledger overview --project api`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteOverview(rootCtx, cfg, ledger.Manager.GetStore(), outwriter.NewOutWriter()); err != nil {
			contract.LogFatal("Error building project overview", err)
		}
	},
}
