package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records recommendation engine instruments through the OpenTelemetry meter API.
type Observability struct {
	meterProvider *metric.MeterProvider
	runCounter    otelmetric.Int64Counter
	runDuration   otelmetric.Float64Histogram
	compositeHist otelmetric.Float64Histogram
}

// New registers a Prometheus-backed meter provider. On exporter failure it returns an
// Observability whose Record methods are no-ops, together with the error.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runCounter, _ := meter.Int64Counter(
		"recommendation.runs",
		otelmetric.WithDescription("Number of recommendation runs"),
	)

	runDuration, _ := meter.Float64Histogram(
		"recommendation.duration",
		otelmetric.WithDescription("Recommendation run duration"),
		otelmetric.WithUnit("ms"),
	)

	compositeHist, _ := meter.Float64Histogram(
		"recommendation.composite_score",
		otelmetric.WithDescription("Distribution of student composite scores"),
	)

	return &Observability{
		meterProvider: provider,
		runCounter:    runCounter,
		runDuration:   runDuration,
		compositeHist: compositeHist,
	}, nil
}

// RecordRun records one recommendation run.
func (o *Observability) RecordRun(ctx context.Context, track string, composite float64, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("track", track))
	if o.runCounter != nil {
		o.runCounter.Add(ctx, 1, attrs)
	}
	if o.runDuration != nil {
		o.runDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
	if o.compositeHist != nil {
		o.compositeHist.Record(ctx, composite, attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
