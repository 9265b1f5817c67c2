// Package telemetry installs the OpenTelemetry meter provider of the CLI.
//
// Every run gets an SDK provider with an in-process reader, so the totals of a
// command can be summarized when it finishes. When an OTLP endpoint is
// configured, the same instruments are also pushed to a collector over gRPC.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	serviceName = "blameledger"
	meterName   = "github.com/huangsam/blameledger"

	defaultShutdownTimeout = 5 * time.Second
)

// Config selects where metrics go besides the in-process reader.
type Config struct {
	ServiceVersion string

	// OTLPEndpoint is a host:port of an OTLP gRPC collector. Empty disables export.
	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string

	ShutdownTimeout time.Duration
}

// Providers holds the installed meter provider.
type Providers struct {
	// Meter is the named meter for creating instruments.
	Meter metric.Meter

	// Shutdown flushes pending exports and releases the provider.
	// Must be called before process exit.
	Shutdown func(ctx context.Context) error

	reader *sdkmetric.ManualReader
}

// Sample is one collected data point.
type Sample struct {
	Name       string
	Attributes string // sorted key=value pairs
	Value      float64
	Count      uint64 // observations, for histograms
}

// Init builds the meter provider and installs it as the global one.
func Init(ctx context.Context, cfg Config) (Providers, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	reader := sdkmetric.NewManualReader()
	opts := []sdkmetric.Option{
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	}

	if cfg.OTLPEndpoint != "" {
		exportOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exportOpts = append(exportOpts, otlpmetricgrpc.WithInsecure())
		}
		if len(cfg.OTLPHeaders) > 0 {
			exportOpts = append(exportOpts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
		}
		exporter, err := otlpmetricgrpc.New(ctx, exportOpts...)
		if err != nil {
			return Providers{}, fmt.Errorf("create metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdown := func(shutdownCtx context.Context) error {
		deadlineCtx, cancel := context.WithTimeout(shutdownCtx, timeout)
		defer cancel()
		return mp.Shutdown(deadlineCtx)
	}

	return Providers{Meter: mp.Meter(meterName), Shutdown: shutdown, reader: reader}, nil
}

// Summary collects the current value of every counter and histogram, sorted by name.
func (p Providers) Summary(ctx context.Context) ([]Sample, error) {
	if p.reader == nil {
		return nil, errors.New("telemetry is not initialized")
	}
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}

	var samples []Sample
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					samples = append(samples, Sample{Name: m.Name, Attributes: formatAttrs(dp.Attributes), Value: float64(dp.Value)})
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					samples = append(samples, Sample{Name: m.Name, Attributes: formatAttrs(dp.Attributes), Value: dp.Value})
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					samples = append(samples, Sample{Name: m.Name, Attributes: formatAttrs(dp.Attributes), Value: dp.Sum, Count: dp.Count})
				}
			}
		}
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Attributes < samples[j].Attributes
	})
	return samples, nil
}

func formatAttrs(set attribute.Set) string {
	parts := make([]string, 0, set.Len())
	for _, kv := range set.ToSlice() {
		parts = append(parts, string(kv.Key)+"="+kv.Value.Emit())
	}
	return strings.Join(parts, ",")
}

// ParseHeaders parses OTLP headers in "key=value,key=value" form.
// Returns nil for empty or invalid input.
func ParseHeaders(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	result := make(map[string]string)
	for pair := range strings.SplitSeq(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
