package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"stockpulse/pkg/contracts/domain"
)

// DefaultTopStockLimit is the length of the warehouse stock ranking
const DefaultTopStockLimit = 10

// Engine filters a record collection and derives every view from it.
// It holds no dataset state; each Compute starts from scratch.
type Engine struct {
	loc           *time.Location
	paretoLimit   int
	topStockLimit int
	logger        *slog.Logger
	tracer        trace.Tracer
}

// EngineOption customizes an Engine
type EngineOption func(*Engine)

// WithLocation sets the zone used to read query date bounds
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithParetoLimit overrides DefaultParetoLimit
func WithParetoLimit(n int) EngineOption {
	return func(e *Engine) { e.paretoLimit = n }
}

// WithTopStockLimit overrides DefaultTopStockLimit
func WithTopStockLimit(n int) EngineOption {
	return func(e *Engine) { e.topStockLimit = n }
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine with default limits in UTC
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		loc:           time.UTC,
		paretoLimit:   DefaultParetoLimit,
		topStockLimit: DefaultTopStockLimit,
		logger:        slog.Default(),
		tracer:        otel.Tracer("stockpulse/dataprocessing"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(slog.String("component", "engine"))
	return e
}

// Compute applies q to all and derives the views of the matching subset.
// The calculators share nothing and run concurrently; all is never modified.
func (e *Engine) Compute(ctx context.Context, all []domain.MovementRecord, q domain.QueryState) (*domain.Views, error) {
	ctx, span := e.tracer.Start(ctx, "engine.compute",
		trace.WithAttributes(attribute.Int("records.total", len(all))))
	defer span.End()

	filter, err := NewFilter(q, e.loc)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	records := filter.Apply(all)
	span.SetAttributes(attribute.Int("records.filtered", len(records)))

	views := &domain.Views{
		TotalRecords:    len(all),
		FilteredRecords: len(records),
		Query:           q,
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		views.KPIs = CalculateKPIs(records)
		views.StockDistribution = CalculateStockDistribution(views.KPIs)
		return nil
	})
	g.Go(func() error {
		views.MaterialSummary = CalculateMaterialSummary(records)
		views.TopStock = TopStock(views.MaterialSummary, e.topStockLimit)
		return nil
	})
	g.Go(func() error {
		views.Managers = CalculateManagerDistribution(records)
		return nil
	})
	g.Go(func() error {
		views.Daily = CalculateDailyBreakdown(records)
		return nil
	})
	g.Go(func() error {
		views.Quality = AnalyzeQuality(records)
		return nil
	})
	g.Go(func() error {
		views.Pareto = CalculatePareto(records, e.paretoLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.DebugContext(ctx, "views computed",
		slog.Int("total", views.TotalRecords),
		slog.Int("filtered", views.FilteredRecords))
	return views, nil
}
