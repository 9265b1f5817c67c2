package core

import (
	"context"
	"time"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ingest"
	"github.com/sirupsen/logrus"
)

// ExecuteIngest ingests every stream in paths with cfg.Workers streams in flight.
// Reports are written even when a stream fails, so the caller sees what was committed.
func ExecuteIngest(ctx context.Context, cfg *contract.Config, store contract.LedgerStore, logger *logrus.Logger,
	metrics *ingest.Metrics, paths []string, w ResultWriter,
) error {
	start := time.Now()
	ing := ingest.New(store, logger, ingest.Options{
		BatchSize:   cfg.BatchSize,
		MaxUnitSize: cfg.MaxUnitSize,
		Metrics:     metrics,
	})

	reports, err := ing.IngestFiles(ctx, paths, cfg.Workers)
	if werr := w.WriteIngestReports(reports, cfg, time.Since(start)); werr != nil && err == nil {
		err = werr
	}
	return err
}
