package http

import (
	"context"

	"stockpulse/internal/services"
	"stockpulse/pkg/contracts/domain"
)

// DatasetServiceInterface defines the interface for dataset operations
type DatasetServiceInterface interface {
	Load(ctx context.Context, source services.LoadSource, fileName string, data []byte) (*domain.DatasetInfo, error)
	Info() (*domain.DatasetInfo, error)
	Options(ctx context.Context) (domain.FilterOptions, error)

	Views(ctx context.Context) (*domain.Views, error)
	ViewsFor(ctx context.Context, q domain.QueryState) (*domain.Views, error)

	Filters() domain.QueryState
	SetFilters(ctx context.Context, q domain.QueryState) (domain.QueryState, error)
	ResetFilters(ctx context.Context) domain.QueryState

	Export(ctx context.Context, kind, format string) (*services.ExportResult, error)
}

// Ensure DatasetService implements DatasetServiceInterface
var _ DatasetServiceInterface = (*services.DatasetService)(nil)
