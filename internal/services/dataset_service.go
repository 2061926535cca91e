package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockpulse/internal/dataprocessing"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/exporter"
	"stockpulse/internal/infrastructure"
	"stockpulse/pkg/contracts/domain"
	"stockpulse/pkg/contracts/events"
)

// LoadSource tells where a workbook payload came from
type LoadSource string

const (
	SourceUpload LoadSource = "upload"
	SourceReload LoadSource = "reload"
	SourceCLI    LoadSource = "cli"
)

// EventPublisher receives dataset and filter events
type EventPublisher interface {
	Publish(ctx context.Context, msgType events.MessageType, data interface{})
}

// QueryValidator checks a query before it is installed or evaluated
type QueryValidator interface {
	Validate(q domain.QueryState) error
}

// ExportResult is a rendered report ready to be served or saved
type ExportResult struct {
	Data        []byte
	FileName    string
	ContentType string
	Rows        int
}

// DatasetService owns the current dataset and the query state applied to it.
// A successful load replaces both at once; a failed load changes nothing.
type DatasetService struct {
	mu      sync.RWMutex
	records []domain.MovementRecord
	info    *domain.DatasetInfo
	query   domain.QueryState

	normalizer *dataprocessing.Normalizer
	engine     *dataprocessing.Engine
	exporter   *exporter.Exporter
	validator  QueryValidator
	publisher  EventPublisher
	metrics    *infrastructure.BusinessMetrics
	tracer     trace.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// DatasetServiceOption customizes a DatasetService
type DatasetServiceOption func(*DatasetService)

// WithPublisher sets the event sink for load and filter events
func WithPublisher(p EventPublisher) DatasetServiceOption {
	return func(s *DatasetService) { s.publisher = p }
}

// WithMetrics records ingestion, view and export metrics
func WithMetrics(m *infrastructure.BusinessMetrics) DatasetServiceOption {
	return func(s *DatasetService) { s.metrics = m }
}

// WithQueryValidator sets the validator applied to incoming queries
func WithQueryValidator(v QueryValidator) DatasetServiceOption {
	return func(s *DatasetService) { s.validator = v }
}

// WithClock overrides time.Now, used for load timestamps and report names
func WithClock(now func() time.Time) DatasetServiceOption {
	return func(s *DatasetService) { s.now = now }
}

// NewDatasetService creates a service with no dataset installed
func NewDatasetService(normalizer *dataprocessing.Normalizer, engine *dataprocessing.Engine, exp *exporter.Exporter, logger *slog.Logger, opts ...DatasetServiceOption) *DatasetService {
	s := &DatasetService{
		normalizer: normalizer,
		engine:     engine,
		exporter:   exp,
		tracer:     otel.Tracer("stockpulse/services"),
		logger:     infrastructure.WithComponent(logger, "dataset_service"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load ingests a workbook and, if it parses, installs it as the current
// dataset with an empty query. File-level defects come back as PARSING
// errors and leave the previous dataset in place.
func (s *DatasetService) Load(ctx context.Context, source LoadSource, fileName string, data []byte) (*domain.DatasetInfo, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.load", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.Int("file.size", len(data)),
		attribute.String("source", string(source)),
	))
	defer span.End()

	start := time.Now()
	ds, err := dataprocessing.Ingest(fileName, data, s.normalizer)
	elapsed := time.Since(start)
	if err != nil {
		format := dataprocessing.DetectFormat(fileName, data)
		if format == "" {
			format = "unknown"
		}
		s.metrics.RecordIngestion(ctx, format, 0, elapsed, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion failed")

		s.logger.WarnContext(ctx, "dataset load failed",
			slog.String("file", fileName),
			slog.String("source", string(source)),
			slog.String("error", err.Error()))
		s.publish(ctx, events.MessageTypeDatasetFailed, events.DatasetFailed{
			FileName: fileName,
			Error:    err.Error(),
			Source:   string(source),
		})
		return nil, apierrors.NewParsingError(fmt.Sprintf("cannot read %s", fileName), err).
			WithContext("file_name", fileName)
	}

	info := &domain.DatasetInfo{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Format:     ds.Format,
		SheetName:  ds.SheetName,
		RowCount:   len(ds.Records),
		LoadedAt:   s.now().UTC(),
		DurationMS: elapsed.Milliseconds(),
	}

	s.mu.Lock()
	s.records = ds.Records
	s.info = info
	s.query = domain.QueryState{}
	s.mu.Unlock()

	s.metrics.RecordIngestion(ctx, ds.Format, len(ds.Records), elapsed, nil)
	span.SetAttributes(attribute.Int("records", len(ds.Records)))
	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset_id", info.ID),
		slog.String("file", fileName),
		slog.String("format", info.Format),
		slog.String("sheet", info.SheetName),
		slog.Int("rows", info.RowCount),
		slog.String("source", string(source)),
		slog.Duration("duration", elapsed))
	s.publish(ctx, events.MessageTypeDatasetLoaded, *info)

	out := *info
	return &out, nil
}

// Info returns the installed dataset description
func (s *DatasetService) Info() (*domain.DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.info == nil {
		return nil, ErrNoDataset
	}
	out := *s.info
	return &out, nil
}

// snapshot returns the records and query state under the read lock. The
// record slice is replaced, never mutated, so it can be read unlocked.
func (s *DatasetService) snapshot() ([]domain.MovementRecord, domain.QueryState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records, cloneQuery(s.query), s.info != nil
}

// Views derives every view under the current query state
func (s *DatasetService) Views(ctx context.Context) (*domain.Views, error) {
	records, q, ok := s.snapshot()
	if !ok {
		return nil, ErrNoDataset
	}
	return s.compute(ctx, records, q)
}

// ViewsFor derives every view under q without touching the stored query
func (s *DatasetService) ViewsFor(ctx context.Context, q domain.QueryState) (*domain.Views, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	records, _, ok := s.snapshot()
	if !ok {
		return nil, ErrNoDataset
	}
	return s.compute(ctx, records, q)
}

func (s *DatasetService) compute(ctx context.Context, records []domain.MovementRecord, q domain.QueryState) (*domain.Views, error) {
	start := time.Now()
	views, err := s.engine.Compute(ctx, records, q)
	s.metrics.RecordViewComputation(ctx, !q.IsEmpty(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return views, nil
}

// Options lists the selectable filter values of the whole dataset
func (s *DatasetService) Options(ctx context.Context) (domain.FilterOptions, error) {
	records, _, ok := s.snapshot()
	if !ok {
		return domain.FilterOptions{}, ErrNoDataset
	}
	return dataprocessing.BuildFilterOptions(records), nil
}

// Filters returns the current query state
func (s *DatasetService) Filters() domain.QueryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneQuery(s.query)
}

// SetFilters validates q and installs it as the current query state
func (s *DatasetService) SetFilters(ctx context.Context, q domain.QueryState) (domain.QueryState, error) {
	if err := s.validate(q); err != nil {
		return domain.QueryState{}, err
	}

	// Compiled before the lock so a rejected query never replaces the current one
	filter, err := dataprocessing.NewFilter(q, s.normalizer.Location())
	if err != nil {
		return domain.QueryState{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	s.mu.Lock()
	if s.info == nil {
		s.mu.Unlock()
		return domain.QueryState{}, ErrNoDataset
	}
	s.query = cloneQuery(q)
	records := s.records
	s.mu.Unlock()

	matched := filter.Apply(records)

	s.logger.InfoContext(ctx, "filters changed",
		slog.Int("filtered", len(matched)),
		slog.Int("total", len(records)))
	s.publish(ctx, events.MessageTypeFiltersChanged, events.FiltersChanged{
		Query:           cloneQuery(q),
		FilteredRecords: len(matched),
	})
	return cloneQuery(q), nil
}

// ResetFilters clears the query state
func (s *DatasetService) ResetFilters(ctx context.Context) domain.QueryState {
	s.mu.Lock()
	s.query = domain.QueryState{}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "filters reset")
	s.publish(ctx, events.MessageTypeFiltersReset, domain.QueryState{})
	return domain.QueryState{}
}

// Export renders the named report for the records matching the current
// query state
func (s *DatasetService) Export(ctx context.Context, kind, format string) (*ExportResult, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.export", trace.WithAttributes(
		attribute.String("report", kind),
		attribute.String("format", format),
	))
	defer span.End()

	report, ok := exporter.ReportByKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, kind)
	}
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	records, q, loaded := s.snapshot()
	if !loaded {
		return nil, ErrNoDataset
	}
	loc := s.normalizer.Location()
	matched, err := dataprocessing.ApplyQuery(records, q, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	summary := dataprocessing.CalculateMaterialSummary(matched)

	data, name, err := s.exporter.Render(report, f, summary, s.now().In(loc))
	s.metrics.RecordExport(ctx, kind, string(f), err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("render %s report: %w", kind, err)
	}

	s.logger.InfoContext(ctx, "report exported",
		slog.String("report", kind),
		slog.String("format", string(f)),
		slog.String("file", name),
		slog.Int("bytes", len(data)))
	return &ExportResult{
		Data:        data,
		FileName:    name,
		ContentType: f.ContentType(),
		Rows:        len(report.Rows(summary)),
	}, nil
}

func (s *DatasetService) validate(q domain.QueryState) error {
	if s.validator == nil {
		return nil
	}
	if err := s.validator.Validate(q); err != nil {
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

func (s *DatasetService) publish(ctx context.Context, t events.MessageType, data interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, t, data)
}

// cloneQuery copies the slices so callers cannot alias the stored state
func cloneQuery(q domain.QueryState) domain.QueryState {
	q.Processes = append([]domain.Process(nil), q.Processes...)
	q.Materials = append([]string(nil), q.Materials...)
	q.Managers = append([]string(nil), q.Managers...)
	q.Periods = append([]string(nil), q.Periods...)
	return q
}
