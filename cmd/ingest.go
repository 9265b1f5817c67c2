package cmd

import (
	"context"

	"github.com/huangsam/blameledger/core"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/internal/ingest"
	"github.com/huangsam/blameledger/internal/ledger"
	"github.com/huangsam/blameledger/internal/outwriter"
	"github.com/huangsam/blameledger/internal/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ingestCmd loads mined-history streams into the ledger.
var ingestCmd = &cobra.Command{
	Use:   "ingest <stream.jsonl>...",
	Short: "Ingest mined-history streams into the ledger",
	Long: `Read one or more JSON Lines streams produced by a history miner and record
their commits, file revisions, contributions and blame snapshots.

Each stream starts with a project unit followed by commit and blame units.
Use "-" to read a stream from standard input. Ingestion is idempotent:
re-ingesting a stream skips what the ledger already holds and overwrites
ownership with the latest snapshot.

Examples:
  # Ingest a single stream
  blameledger ingest history.jsonl

  # Ingest several streams, two at a time, into PostgreSQL
  BLAMELEDGER_BACKEND=postgresql BLAMELEDGER_DB_CONNECT="host=... dbname=..." \
    blameledger ingest --workers 2 a.jsonl b.jsonl

  # Pipe a miner straight into the ledger
  miner --repo . | blameledger ingest -

  # Push ingest metrics to an OpenTelemetry collector
  blameledger ingest --otlp-endpoint localhost:4317 --otlp-insecure history.jsonl`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		providers, err := telemetry.Init(rootCtx, telemetry.Config{
			ServiceVersion: version,
			OTLPEndpoint:   viper.GetString("otlp-endpoint"),
			OTLPInsecure:   viper.GetBool("otlp-insecure"),
			OTLPHeaders:    telemetry.ParseHeaders(viper.GetString("otlp-headers")),
		})
		if err != nil {
			contract.LogFatal("Failed to set up telemetry", err)
		}
		metrics, err := ingest.NewMetrics(providers.Meter)
		if err != nil {
			contract.LogFatal("Failed to create ingest metrics", err)
		}

		store := ledger.Manager.GetStore()
		ingestErr := core.ExecuteIngest(rootCtx, cfg, store, logger, metrics, args, outwriter.NewOutWriter())

		logMetricSummary(providers)
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to flush metrics")
		}
		if ingestErr != nil {
			contract.LogFatal("Error ingesting streams", ingestErr)
		}
	},
}

// logMetricSummary logs the collected ingest metrics at debug level.
func logMetricSummary(providers telemetry.Providers) {
	samples, err := providers.Summary(rootCtx)
	if err != nil {
		logger.WithError(err).Warn("Failed to collect metrics")
		return
	}
	for _, s := range samples {
		fields := logrus.Fields{"metric": s.Name, "value": s.Value}
		if s.Attributes != "" {
			fields["attributes"] = s.Attributes
		}
		if s.Count > 0 {
			fields["count"] = s.Count
		}
		logger.WithFields(fields).Debug("ingest metric")
	}
}
