package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"stockpulse/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	cfg.TraceExporter = "stdout"

	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OTelConfig)
		wantErr bool
		check   func(*testing.T, *OTelProviders)
	}{
		{
			name: "everything disabled",
			mutate: func(c *OTelConfig) {
				c.TraceExporter = "none"
				c.MetricExporter = "none"
			},
			check: func(t *testing.T, p *OTelProviders) {
				assert.Nil(t, p.TracerProvider)
				assert.Nil(t, p.MeterProvider)
				assert.Nil(t, p.PrometheusHTTP)
				assert.NotNil(t, p.Tracer, "tracer falls back to global")
				assert.NotNil(t, p.Meter, "meter falls back to noop")
			},
		},
		{
			name:    "unknown trace exporter",
			mutate:  func(c *OTelConfig) { c.TraceExporter = "jaeger" },
			wantErr: true,
		},
		{
			name: "unknown metric exporter",
			mutate: func(c *OTelConfig) {
				c.MetricExporter = "statsd"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := OTelConfigFrom(config.Default().Telemetry)
			tt.mutate(cfg)

			providers, err := InitializeOTel(cfg, testLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())
			tt.check(t, providers)
		})
	}
}

func TestTraceCorrelation(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"
	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.Len(t, traceID, 32)
	assert.Empty(t, TraceIDFromContext(context.Background()))

	RecordError(ctx, errors.New("boom"))
	assert.True(t, span.IsRecording())
}

func TestPrometheusEndpoint(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Telemetry)
	providers, err := InitializeOTel(cfg, testLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordIngestion(context.Background(), "xlsx", 12, 40*time.Millisecond, nil)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ingestions_total")
}

func TestBusinessMetrics(t *testing.T) {
	metrics, err := CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)
	assert.NotNil(t, metrics.IngestionsTotal)
	assert.NotNil(t, metrics.IngestionRowsTotal)
	assert.NotNil(t, metrics.IngestionDuration)
	assert.NotNil(t, metrics.DatasetRecords)
	assert.NotNil(t, metrics.ViewComputationsTotal)
	assert.NotNil(t, metrics.ExportsTotal)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordIngestion(ctx, "csv", 3, time.Millisecond, errors.New("bad"))
		metrics.RecordViewComputation(ctx, true, time.Millisecond, nil)
		metrics.RecordExport(ctx, "stock", "xlsx", nil)
		metrics.RecordHTTPRequest(ctx, http.MethodGet, "/api/views", 200, time.Millisecond)
		metrics.TrackActiveRequest(ctx)()
	})
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var metrics *BusinessMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordIngestion(ctx, "xlsx", 1, time.Second, nil)
		metrics.RecordViewComputation(ctx, false, time.Second, nil)
		metrics.RecordExport(ctx, "inventory", "csv", nil)
		metrics.RecordHTTPRequest(ctx, http.MethodPost, "/api/dataset", 201, time.Second)
		metrics.TrackActiveRequest(ctx)()
	})
}
