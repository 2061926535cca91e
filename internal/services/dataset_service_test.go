package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/dataprocessing"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/exporter"
	"stockpulse/internal/shared/testutil"
	"stockpulse/internal/validation"
	"stockpulse/pkg/contracts/domain"
	"stockpulse/pkg/contracts/events"
)

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msgType events.MessageType, data interface{}) {
	m.Called(ctx, msgType, data)
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, pub EventPublisher) *DatasetService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	opts := []DatasetServiceOption{
		WithQueryValidator(validation.NewQueryValidator()),
		WithClock(func() time.Time { return fixedNow }),
	}
	if pub != nil {
		opts = append(opts, WithPublisher(pub))
	}
	return NewDatasetService(
		dataprocessing.NewNormalizer(time.UTC),
		dataprocessing.NewEngine(dataprocessing.WithLocation(time.UTC)),
		exporter.New(logger),
		logger,
		opts...,
	)
}

func movementsFixture(t *testing.T) []byte {
	return testutil.MovementWorkbook(t,
		[]any{"15/01/2024", "Entrada", 100, "M-1", "Cable", "", "Bodega"},
		[]any{"20/01/2024", "Salida", 30, "M-1", "Cable", "Ana", ""},
		[]any{"05/02/2024", "Devolucion", 5, "M-1", "Cable", "", "Ana"},
		[]any{"10/02/2024", "Legalizacion", 10, "M-1", "Cable", "Ana", ""},
		[]any{"12/02/2024", "Entrada", 40, "M-2", "Tubo", "", "Bodega"},
	)
}

func loadFixture(t *testing.T, s *DatasetService) *domain.DatasetInfo {
	t.Helper()
	info, err := s.Load(context.Background(), SourceUpload, "movimientos.xlsx", movementsFixture(t))
	require.NoError(t, err)
	return info
}

func TestDatasetService_Load(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, events.MessageTypeDatasetLoaded, mock.MatchedBy(func(info domain.DatasetInfo) bool {
		return info.FileName == "movimientos.xlsx" && info.RowCount == 5
	})).Once()

	s := newTestService(t, pub)
	info := loadFixture(t, s)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "movimientos.xlsx", info.FileName)
	assert.Equal(t, dataprocessing.FormatXLSX, info.Format)
	assert.Equal(t, "Movimientos", info.SheetName)
	assert.Equal(t, 5, info.RowCount)
	assert.Equal(t, fixedNow, info.LoadedAt)

	current, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, info, current)
	pub.AssertExpectations(t)
}

func TestDatasetService_LoadFailureKeepsPreviousDataset(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, events.MessageTypeDatasetLoaded, mock.Anything).Once()
	pub.On("Publish", mock.Anything, events.MessageTypeFiltersChanged, mock.Anything).Once()
	pub.On("Publish", mock.Anything, events.MessageTypeDatasetFailed, mock.MatchedBy(func(p events.DatasetFailed) bool {
		return p.FileName == "roto.xlsx" && p.Source == string(SourceReload) && p.Error != ""
	})).Once()

	s := newTestService(t, pub)
	before := loadFixture(t, s)
	query := domain.QueryState{Processes: []domain.Process{domain.ProcessEntrada}}
	_, err := s.SetFilters(context.Background(), query)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), SourceReload, "roto.xlsx", []byte("not a workbook at all"))
	require.Error(t, err)
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)

	after, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, query, s.Filters(), "a failed load leaves the query state alone")
	pub.AssertExpectations(t)
}

func TestDatasetService_LoadResetsFilters(t *testing.T) {
	s := newTestService(t, nil)
	first := loadFixture(t, s)

	_, err := s.SetFilters(context.Background(), domain.QueryState{Periods: []string{"202401"}})
	require.NoError(t, err)
	assert.False(t, s.Filters().IsEmpty())

	second := loadFixture(t, s)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, s.Filters().IsEmpty())
}

func TestDatasetService_LoadEmptyWorkbook(t *testing.T) {
	s := newTestService(t, nil)
	data := testutil.WorkbookBytes(t, testutil.NewWorkbook(t, "Hoja1", nil))

	_, err := s.Load(context.Background(), SourceUpload, "vacio.xlsx", data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataprocessing.ErrEmptyWorkbook))
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)

	_, err = s.Info()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDatasetService_NoDataset(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	_, err := s.Views(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.ViewsFor(ctx, domain.QueryState{})
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.Options(ctx)
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.SetFilters(ctx, domain.QueryState{})
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = s.Export(ctx, "inventory", "csv")
	assert.ErrorIs(t, err, ErrNoDataset)
	assert.True(t, s.Filters().IsEmpty())
}

func TestDatasetService_Views(t *testing.T) {
	s := newTestService(t, nil)
	loadFixture(t, s)

	views, err := s.Views(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, views.TotalRecords)
	assert.Equal(t, 5, views.FilteredRecords)
	assert.Equal(t, 140.0, views.KPIs.MaterialRecibido)
	assert.Equal(t, 30.0, views.KPIs.MaterialDistribuido)
	assert.Equal(t, 115.0, views.KPIs.StockAlmacen)
	require.Len(t, views.MaterialSummary, 2)
	assert.Equal(t, "M-1", views.MaterialSummary[0].Codigo)
	assert.Equal(t, 75.0, views.MaterialSummary[0].StockAlmacen)
}

func TestDatasetService_SetFiltersDrivesViews(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, events.MessageTypeDatasetLoaded, mock.Anything).Once()
	pub.On("Publish", mock.Anything, events.MessageTypeFiltersChanged, mock.MatchedBy(func(p events.FiltersChanged) bool {
		return p.FilteredRecords == 2
	})).Once()
	pub.On("Publish", mock.Anything, events.MessageTypeFiltersReset, mock.Anything).Once()

	s := newTestService(t, pub)
	loadFixture(t, s)
	ctx := context.Background()

	q := domain.QueryState{Processes: []domain.Process{domain.ProcessEntrada}}
	installed, err := s.SetFilters(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, q, installed)

	views, err := s.Views(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, views.FilteredRecords)
	assert.Equal(t, 140.0, views.KPIs.MaterialRecibido)
	assert.Zero(t, views.KPIs.MaterialDistribuido)
	assert.Equal(t, q, views.Query)

	// mutating the caller's slice must not leak into the stored state
	q.Processes[0] = domain.ProcessSalida
	assert.Equal(t, domain.ProcessEntrada, s.Filters().Processes[0])

	assert.True(t, s.ResetFilters(ctx).IsEmpty())
	views, err = s.Views(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, views.FilteredRecords)
	pub.AssertExpectations(t)
}

func TestDatasetService_InvalidFilters(t *testing.T) {
	s := newTestService(t, nil)
	loadFixture(t, s)

	tests := []struct {
		name  string
		query domain.QueryState
	}{
		{"bad date", domain.QueryState{DateFrom: "2024-13-01"}},
		{"unknown process", domain.QueryState{Processes: []domain.Process{"Otro"}}},
		{"bad period", domain.QueryState{Periods: []string{"2024"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SetFilters(context.Background(), tt.query)
			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			_, err = s.ViewsFor(context.Background(), tt.query)
			require.True(t, errors.As(err, &apiErr))
			assert.True(t, s.Filters().IsEmpty())
		})
	}
}

func TestDatasetService_RejectedQueryKeepsCurrentFilters(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	s := NewDatasetService(
		dataprocessing.NewNormalizer(time.UTC),
		dataprocessing.NewEngine(dataprocessing.WithLocation(time.UTC)),
		exporter.New(logger),
		logger,
	)
	loadFixture(t, s)
	ctx := context.Background()

	current := domain.QueryState{Materials: []string{"Tubo"}}
	_, err := s.SetFilters(ctx, current)
	require.NoError(t, err)

	tests := []struct {
		name  string
		query domain.QueryState
	}{
		{"bad date_from", domain.QueryState{DateFrom: "2024-13-01"}},
		{"bad date_to", domain.QueryState{Materials: []string{"Cable"}, DateTo: "15/02/2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SetFilters(ctx, tt.query)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Equal(t, current, s.Filters())

			views, err := s.Views(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, views.FilteredRecords)
		})
	}
}

func TestDatasetService_ViewsForIsStateless(t *testing.T) {
	s := newTestService(t, nil)
	loadFixture(t, s)

	views, err := s.ViewsFor(context.Background(), domain.QueryState{
		DateFrom: "2024-02-01",
		DateTo:   "2024-02-29",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, views.FilteredRecords)
	assert.True(t, s.Filters().IsEmpty())
}

func TestDatasetService_Options(t *testing.T) {
	s := newTestService(t, nil)
	loadFixture(t, s)
	_, err := s.SetFilters(context.Background(), domain.QueryState{Materials: []string{"Tubo"}})
	require.NoError(t, err)

	opts, err := s.Options(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cable", "Tubo"}, opts.Materials, "options ignore the query state")
	assert.Equal(t, []string{"Ana", "Bodega"}, opts.Managers)
	assert.Equal(t, []string{"202402", "202401"}, opts.Periods)
	assert.ElementsMatch(t, []domain.Process{
		domain.ProcessEntrada, domain.ProcessSalida, domain.ProcessDevolucion, domain.ProcessLegalizado,
	}, opts.Processes)
}

func TestDatasetService_Export(t *testing.T) {
	s := newTestService(t, nil)
	loadFixture(t, s)
	ctx := context.Background()

	t.Run("stock csv", func(t *testing.T) {
		res, err := s.Export(ctx, "stock", "csv")
		require.NoError(t, err)
		assert.Equal(t, "Stock_Almacen_2024-03-15.csv", res.FileName)
		assert.Contains(t, res.ContentType, "text/csv")
		assert.Equal(t, 2, res.Rows)

		body := strings.TrimPrefix(string(res.Data), "\ufeff")
		assert.True(t, strings.HasPrefix(body, "Código"))
		assert.Contains(t, body, "M-1")
		assert.Contains(t, body, "Tubo")
	})

	t.Run("inventory follows filters", func(t *testing.T) {
		_, err := s.SetFilters(ctx, domain.QueryState{Materials: []string{"Tubo"}})
		require.NoError(t, err)
		defer s.ResetFilters(ctx)

		res, err := s.Export(ctx, "inventory", "")
		require.NoError(t, err)
		assert.Equal(t, "Reporte_Inventario_2024-03-15.xlsx", res.FileName)
		assert.Equal(t, 1, res.Rows)
		assert.NotEmpty(t, res.Data)
	})

	t.Run("unknown report", func(t *testing.T) {
		_, err := s.Export(ctx, "ledger", "csv")
		assert.ErrorIs(t, err, ErrUnknownReport)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := s.Export(ctx, "stock", "pdf")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestDatasetService_ConcurrentReadsDuringLoad(t *testing.T) {
	s := newTestService(t, nil)
	loadFixture(t, s)
	data := movementsFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			views, err := s.Views(context.Background())
			if assert.NoError(t, err) {
				assert.Equal(t, 5, views.TotalRecords)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := s.Load(context.Background(), SourceReload, "movimientos.xlsx", data)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
