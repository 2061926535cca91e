package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	mw "stockpulse/internal/middleware"
	"stockpulse/internal/services"
	"stockpulse/internal/validation"
	"stockpulse/pkg/contracts/domain"
)

const (
	// multipart framing allowed on top of the file size limit
	multipartOverhead = 1 << 20

	// maxQueryBody bounds JSON query-state bodies
	maxQueryBody = 64 << 10
)

var exportFormats = []string{"xlsx", "csv"}

// DatasetHandler serves the dataset, filter, view and export endpoints
type DatasetHandler struct {
	service      DatasetServiceInterface
	uploads      *validation.UploadValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *mw.QueryParamValidator
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, uploads *validation.UploadValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		uploads:      uploads,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		params:       mw.NewQueryParamValidator(errorHandler),
	}
}

// DatasetRoutes returns the /dataset routes
func (h *DatasetHandler) DatasetRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(mw.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.UploadDataset)
	r.Get("/", h.GetDataset)
	r.Get("/options", h.GetOptions)
	return r
}

// FilterRoutes returns the /filters routes
func (h *DatasetHandler) FilterRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(mw.ContentTypeValidator(h.errorHandler, "application/json"))

	r.Get("/", h.GetFilters)
	r.Put("/", h.SetFilters)
	r.Delete("/", h.ResetFilters)
	return r
}

// ViewRoutes returns the /views routes
func (h *DatasetHandler) ViewRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(mw.ContentTypeValidator(h.errorHandler, "application/json"))

	r.Get("/", h.GetViews)
	r.Post("/", h.QueryViews)
	return r
}

// ExportRoutes returns the /export routes
func (h *DatasetHandler) ExportRoutes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{kind}", func(r chi.Router) {
		r.Use(h.ExportCtx)
		r.Get("/", h.Export)
	})
	return r
}

// ExportCtx middleware validates the report kind
func (h *DatasetHandler) ExportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch kind := chi.URLParam(r, "kind"); kind {
		case "inventory", "stock":
			next.ServeHTTP(w, r)
		default:
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("report %q", kind)))
		}
	})
}

// UploadDataset handles POST /api/dataset
func (h *DatasetHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxBytes()+multipartOverhead)
	file, header, err := r.FormFile(config.DefaultUploadField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.PayloadTooLargeError(h.uploads.MaxBytes()))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(config.DefaultUploadField,
			fmt.Sprintf("multipart field %q is required", config.DefaultUploadField)))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.uploads.MaxBytes()+1))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.uploads.Validate(header.Filename, data); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "dataset upload received",
		slog.String("request_id", reqID),
		slog.String("file_name", header.Filename),
		slog.Int("size", len(data)),
	)

	info, err := h.service.Load(ctx, services.SourceUpload, header.Filename, data)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// GetDataset handles GET /api/dataset
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetOptions handles GET /api/dataset/options
func (h *DatasetHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.Options(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, options)
}

// GetFilters handles GET /api/filters
func (h *DatasetHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Filters())
}

// SetFilters handles PUT /api/filters
func (h *DatasetHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	applied, err := h.service.SetFilters(r.Context(), q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, applied)
}

// ResetFilters handles DELETE /api/filters
func (h *DatasetHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.ResetFilters(r.Context()))
}

// GetViews handles GET /api/views using the current query state
func (h *DatasetHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Views(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, views)
}

// QueryViews handles POST /api/views. The body is a query state evaluated
// without replacing the current one.
func (h *DatasetHandler) QueryViews(w http.ResponseWriter, r *http.Request) {
	q, ok := h.decodeQuery(w, r)
	if !ok {
		return
	}

	views, err := h.service.ViewsFor(r.Context(), q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, views)
}

// Export handles GET /api/export/{kind}?format=xlsx|csv
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := chi.URLParam(r, "kind")

	format, ok := h.params.ValidateEnum(w, r, "format", exportFormats, "xlsx")
	if !ok {
		return
	}

	result, err := h.service.Export(ctx, kind, format)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "serving export",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("report", kind),
		slog.String("file", result.FileName),
		slog.Int("rows", result.Rows),
	)

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.WarnContext(ctx, "export write failed", slog.String("error", err.Error()))
	}
}

func (h *DatasetHandler) decodeQuery(w http.ResponseWriter, r *http.Request) (domain.QueryState, bool) {
	var q domain.QueryState
	r.Body = http.MaxBytesReader(w, r.Body, maxQueryBody)
	if err := render.DecodeJSON(r.Body, &q); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, err)
			return q, false
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return q, false
	}
	return q, true
}

// handleServiceError maps service sentinels to API errors
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
	case errors.Is(err, services.ErrUnknownReport):
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("report"))
	case errors.Is(err, services.ErrUnknownFormat):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
	case errors.Is(err, services.ErrInvalidQuery):
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
