// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ingest"
	"github.com/huangsam/blameledger/schema"
)

// OutWriter provides a unified interface for all output operations.
// Commands hand it query results and never format anything themselves.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTotals prints what every author of the project owns.
func (ow *OutWriter) WriteTotals(project schema.Project, totals []schema.DeveloperTotals, cfg *contract.Config, duration time.Duration) error {
	return WriteTotals(project, totals, cfg, duration)
}

// WriteSeries prints the size-over-time series of a project subtree.
func (ow *OutWriter) WriteSeries(project schema.Project, prefix string, series []schema.CommitSize, cfg *contract.Config, duration time.Duration) error {
	return WriteSeries(project, prefix, series, cfg, duration)
}

// WriteWindow prints the revision window of one path.
func (ow *OutWriter) WriteWindow(window schema.PathWindow, cfg *contract.Config) error {
	return WriteWindow(window, cfg)
}

// WriteShares prints the ownership shares of a project subtree.
func (ow *OutWriter) WriteShares(project schema.Project, prefix string, shares []schema.OwnershipShare, cfg *contract.Config, duration time.Duration) error {
	return WriteShares(project, prefix, shares, cfg, duration)
}

// WriteChurn prints the recorded contributions of every author.
func (ow *OutWriter) WriteChurn(project schema.Project, churn []schema.DeveloperChurn, cfg *contract.Config, duration time.Duration) error {
	return WriteChurn(project, churn, cfg, duration)
}

// WriteOverview prints the one-shot summary of a project.
func (ow *OutWriter) WriteOverview(overview schema.ProjectOverview, cfg *contract.Config) error {
	return WriteOverview(overview, cfg)
}

// WriteIngestReports prints the totals of one or more ingestion passes.
func (ow *OutWriter) WriteIngestReports(reports []ingest.Report, cfg *contract.Config, duration time.Duration) error {
	return WriteIngestReports(reports, cfg, duration)
}

// WriteStatus prints ledger status information.
func (ow *OutWriter) WriteStatus(status schema.LedgerStatus, cfg *contract.Config) error {
	return WriteStatus(status, cfg)
}
