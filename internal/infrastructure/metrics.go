package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Ingestion metrics
	IngestionsTotal    metric.Int64Counter
	IngestionRowsTotal metric.Int64Counter
	IngestionDuration  metric.Float64Histogram
	DatasetRecords     metric.Int64Gauge

	// View metrics
	ViewComputationsTotal   metric.Int64Counter
	ViewComputationDuration metric.Float64Histogram

	// Export metrics
	ExportsTotal metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	m := &BusinessMetrics{}
	var err error

	// HTTP metrics
	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	// Ingestion metrics
	if m.IngestionsTotal, err = meter.Int64Counter(
		"ingestions_total",
		metric.WithDescription("Total number of workbook ingestions by format and outcome"),
	); err != nil {
		return nil, err
	}
	if m.IngestionRowsTotal, err = meter.Int64Counter(
		"ingestion_rows_total",
		metric.WithDescription("Total number of movement rows ingested"),
	); err != nil {
		return nil, err
	}
	if m.IngestionDuration, err = meter.Float64Histogram(
		"ingestion_duration_seconds",
		metric.WithDescription("Workbook ingestion duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.DatasetRecords, err = meter.Int64Gauge(
		"dataset_records",
		metric.WithDescription("Movement records in the loaded dataset"),
	); err != nil {
		return nil, err
	}

	// View metrics
	if m.ViewComputationsTotal, err = meter.Int64Counter(
		"view_computations_total",
		metric.WithDescription("Total number of view recomputations"),
	); err != nil {
		return nil, err
	}
	if m.ViewComputationDuration, err = meter.Float64Histogram(
		"view_computation_duration_seconds",
		metric.WithDescription("Time to derive all views from the dataset"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Export metrics
	if m.ExportsTotal, err = meter.Int64Counter(
		"exports_total",
		metric.WithDescription("Total number of report exports by kind and format"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordIngestion records one ingestion attempt. Safe on a nil receiver.
func (m *BusinessMetrics) RecordIngestion(ctx context.Context, format string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("status", outcome(err)),
	)
	m.IngestionsTotal.Add(ctx, 1, attrs)
	m.IngestionDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.IngestionRowsTotal.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("format", format)))
		m.DatasetRecords.Record(ctx, int64(rows))
	}
}

// RecordViewComputation records one recomputation of the views
func (m *BusinessMetrics) RecordViewComputation(ctx context.Context, filtered bool, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Bool("filtered", filtered),
		attribute.String("status", outcome(err)),
	)
	m.ViewComputationsTotal.Add(ctx, 1, attrs)
	m.ViewComputationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordExport records one report export
func (m *BusinessMetrics) RecordExport(ctx context.Context, kind, format string, err error) {
	if m == nil {
		return
	}
	m.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("format", format),
		attribute.String("status", outcome(err)),
	))
}

// RecordHTTPRequest records a completed HTTP request
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackActiveRequest increments the in-flight gauge and returns its decrement
func (m *BusinessMetrics) TrackActiveRequest(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.HTTPActiveRequests.Add(ctx, 1)
	return func() { m.HTTPActiveRequests.Add(ctx, -1) }
}
