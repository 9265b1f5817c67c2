// Package core runs blameledger commands against a ledger store and hands the
// results to a ResultWriter. It holds no storage or formatting logic itself.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ingest"
	"github.com/huangsam/blameledger/internal/outwriter"
	"github.com/huangsam/blameledger/schema"
)

// ResultWriter renders command results in the configured output format.
type ResultWriter interface {
	WriteTotals(project schema.Project, totals []schema.DeveloperTotals, cfg *contract.Config, duration time.Duration) error
	WriteSeries(project schema.Project, prefix string, series []schema.CommitSize, cfg *contract.Config, duration time.Duration) error
	WriteWindow(window schema.PathWindow, cfg *contract.Config) error
	WriteShares(project schema.Project, prefix string, shares []schema.OwnershipShare, cfg *contract.Config, duration time.Duration) error
	WriteChurn(project schema.Project, churn []schema.DeveloperChurn, cfg *contract.Config, duration time.Duration) error
	WriteOverview(overview schema.ProjectOverview, cfg *contract.Config) error
	WriteIngestReports(reports []ingest.Report, cfg *contract.Config, duration time.Duration) error
	WriteStatus(status schema.LedgerStatus, cfg *contract.Config) error
}

var _ ResultWriter = &outwriter.OutWriter{} // Compile-time check

// findProject resolves the configured project without creating it.
func findProject(ctx context.Context, cfg *contract.Config, store contract.LedgerStore) (schema.Project, error) {
	if cfg.Project == "" {
		return schema.Project{}, errors.New("--project or --root-path is required")
	}
	project, err := store.FindProject(ctx, cfg.Project)
	if errors.Is(err, contract.ErrNotFound) {
		return schema.Project{}, fmt.Errorf("project %q has not been ingested: %w", cfg.Project, err)
	}
	if err != nil {
		return schema.Project{}, fmt.Errorf("failed to find project %q: %w", cfg.Project, err)
	}
	return project, nil
}

// ExecuteTotals prints what every author of the configured project owns.
func ExecuteTotals(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter) error {
	start := time.Now()
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	totals, err := store.DeveloperTotals(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to compute developer totals: %w", err)
	}
	return w.WriteTotals(project, totals, cfg, time.Since(start))
}

// ExecuteSeries prints project size and stability per commit under cfg.Prefix.
func ExecuteSeries(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter) error {
	start := time.Now()
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	series, err := store.CommitSizeSeries(ctx, project.ID, cfg.Prefix)
	if err != nil {
		return fmt.Errorf("failed to compute commit series: %w", err)
	}
	return w.WriteSeries(project, cfg.Prefix, series, cfg, time.Since(start))
}

// ExecuteWindow prints the first and last revision of one path.
func ExecuteWindow(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter, path string) error {
	if path == "" {
		return errors.New("a file path is required")
	}
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	window, found, err := store.QueryRevisionWindow(ctx, project.ID, path)
	if err != nil {
		return fmt.Errorf("failed to query revision window: %w", err)
	}
	return w.WriteWindow(schema.PathWindow{Path: path, Found: found, RevisionWindow: window}, cfg)
}

// ExecuteShares prints how the owned lines under cfg.Prefix split between authors.
func ExecuteShares(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter) error {
	start := time.Now()
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	shares, err := store.OwnershipShares(ctx, project.ID, cfg.Prefix)
	if err != nil {
		return fmt.Errorf("failed to compute ownership shares: %w", err)
	}
	return w.WriteShares(project, cfg.Prefix, shares, cfg, time.Since(start))
}

// ExecuteChurn prints the recorded contributions of every author.
func ExecuteChurn(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter) error {
	start := time.Now()
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	churn, err := store.DeveloperChurn(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to compute developer churn: %w", err)
	}
	return w.WriteChurn(project, churn, cfg, time.Since(start))
}

// ExecuteOverview prints the one-shot summary of the configured project.
func ExecuteOverview(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter) error {
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	overview, err := store.ProjectOverview(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to build project overview: %w", err)
	}
	return w.WriteOverview(overview, cfg)
}

// ExecuteStatus prints row counts of every ledger table.
func ExecuteStatus(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, w ResultWriter) error {
	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ledger status: %w", err)
	}
	return w.WriteStatus(status, cfg)
}

// ExecuteReset deletes every fact of the configured project.
func ExecuteReset(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, out io.Writer) error {
	project, err := findProject(ctx, cfg, store)
	if err != nil {
		return err
	}
	if err := store.ResetProject(ctx, project.ID); err != nil {
		return fmt.Errorf("failed to reset project %q: %w", project.Name, err)
	}
	_, err = fmt.Fprintf(out, "Project %s reset successfully.\n", project.Name)
	return err
}
