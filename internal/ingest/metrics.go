package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/blameledger/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRecordsTotal = "blameledger.ingest.records.total"
	metricUnitsTotal   = "blameledger.ingest.units.total"
	metricUnitDuration = "blameledger.ingest.unit.duration.seconds"

	attrRelation = "relation"
	attrOutcome  = "outcome"
	attrUnit     = "unit"
)

// Metrics holds OTel instruments for ingestion.
type Metrics struct {
	records      metric.Int64Counter
	units        metric.Int64Counter
	unitDuration metric.Float64Histogram
}

// NewMetrics creates ingestion instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	records, err := mt.Int64Counter(metricRecordsTotal,
		metric.WithDescription("Ledger records submitted, by relation and outcome"), metric.WithUnit("{record}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsTotal, err)
	}
	units, err := mt.Int64Counter(metricUnitsTotal,
		metric.WithDescription("Stream units ingested, by kind"), metric.WithUnit("{unit}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUnitsTotal, err)
	}
	unitDuration, err := mt.Float64Histogram(metricUnitDuration,
		metric.WithDescription("Per-unit ingestion duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUnitDuration, err)
	}
	return &Metrics{records: records, units: units, unitDuration: unitDuration}, nil
}

// RecordBatch counts the outcome of one batch write.
// Safe to call on a nil receiver (no-op).
func (m *Metrics) RecordBatch(ctx context.Context, relation string, report schema.BatchReport) {
	if m == nil {
		return
	}
	add := func(outcome string, n int) {
		if n > 0 {
			m.records.Add(ctx, int64(n), metric.WithAttributes(
				attribute.String(attrRelation, relation), attribute.String(attrOutcome, outcome)))
		}
	}
	add("written", report.Written)
	add("skipped", report.Skipped)
	add("rejected", len(report.Rejected))
}

// RecordUnit counts one ingested unit and its duration.
// Safe to call on a nil receiver (no-op).
func (m *Metrics) RecordUnit(ctx context.Context, kind string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrUnit, kind))
	m.units.Add(ctx, 1, attrs)
	m.unitDuration.Record(ctx, d.Seconds(), attrs)
}
