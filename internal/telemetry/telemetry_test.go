package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestInit_SummaryCollectsInstruments(t *testing.T) {
	ctx := context.Background()
	p, err := Init(ctx, Config{ServiceVersion: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	counter, err := p.Meter.Int64Counter("records.total")
	require.NoError(t, err)
	counter.Add(ctx, 3, metric.WithAttributes(attribute.String("relation", "commits"), attribute.String("outcome", "written")))
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("relation", "commits"), attribute.String("outcome", "written")))

	hist, err := p.Meter.Float64Histogram("unit.duration")
	require.NoError(t, err)
	hist.Record(ctx, 0.5)
	hist.Record(ctx, 1.5)

	samples, err := p.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, Sample{Name: "records.total", Attributes: "outcome=written,relation=commits", Value: 5}, samples[0])
	assert.Equal(t, "unit.duration", samples[1].Name)
	assert.Equal(t, uint64(2), samples[1].Count)
	assert.InDelta(t, 2.0, samples[1].Value, 1e-9)
}

func TestInit_InstallsGlobalProvider(t *testing.T) {
	ctx := context.Background()
	p, err := Init(ctx, Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(ctx) })

	counter, err := otel.Meter("global").Int64Counter("via.global")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	samples, err := p.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "via.global", samples[0].Name)
}

func TestProviders_SummaryWithoutInit(t *testing.T) {
	_, err := Providers{}.Summary(context.Background())
	assert.Error(t, err)
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"empty", "", nil},
		{"single", "authorization=Bearer x", map[string]string{"authorization": "Bearer x"}},
		{"several with spaces", " a = 1 , b=2", map[string]string{"a": "1", "b": "2"}},
		{"no pairs", "garbage", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHeaders(tt.raw))
		})
	}
}
