package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "revlens/internal/errors"
	"revlens/internal/services"
	"revlens/pkg/contracts/domain"
)

// uploadFormField is the multipart field carrying the spreadsheet.
const uploadFormField = "file"

// DatasetHandler handles dataset upload and dashboard view requests.
type DatasetHandler struct {
	service      DashboardServiceInterface
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/defaults", h.Defaults)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/summary", h.GetSummary)
		r.Get("/records", h.GetRecords)
		r.Get("/top", h.GetTop)
		r.Get("/segments", h.GetSegments)
		r.Get("/outliers", h.GetOutliers)
		r.Get("/export", h.Export)
		r.Delete("/", h.Delete)
	})

	return r
}

// DatasetCtx validates the dataset ID parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" || len(id) > 64 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Invalid dataset ID"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets: a multipart spreadsheet upload.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		h.errorHandler.HandleError(w, r,
			apierrors.ErrValidation(uploadFormField, "A spreadsheet file is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Ingest(r.Context(), header.Filename, content)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset uploaded",
		slog.String("dataset_id", view.ID),
		slog.String("filename", view.Filename),
		slog.Int("records", view.Summary.RecordCount))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, view)
}

// Defaults handles GET /api/datasets/defaults: the interactive-control
// defaults and ranges for widget initialization.
func (h *DatasetHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Defaults()
	render.JSON(w, r, map[string]interface{}{
		"page_size":     cfg.PageSize,
		"top_customers": cfg.TopCustomers,
		"low_threshold": map[string]float64{
			"default": cfg.LowThresholdDefault,
			"min":     cfg.LowThresholdMin,
			"max":     cfg.LowThresholdMax,
		},
		"high_threshold": map[string]float64{
			"default": cfg.HighThresholdDefault,
			"min":     cfg.HighThresholdMin,
			"max":     cfg.HighThresholdMax,
		},
	})
}

// GetSummary handles GET /api/datasets/{id}/summary.
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetRecords handles GET /api/datasets/{id}/records?page=N.
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorHandler.HandleError(w, r,
				apierrors.ErrValidation("page", "Page must be a positive integer"))
			return
		}
		page = parsed
	}

	view, err := h.service.RankedPage(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetTop handles GET /api/datasets/{id}/top.
func (h *DatasetHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.TopCustomers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetSegments handles GET /api/datasets/{id}/segments?segment=All|A|B|C.
func (h *DatasetHandler) GetSegments(w http.ResponseWriter, r *http.Request) {
	filter, err := domain.ParseSegmentFilter(r.URL.Query().Get("segment"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("segment", err.Error()))
		return
	}

	view, err := h.service.Segmentation(r.Context(), chi.URLParam(r, "id"), filter)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetOutliers handles GET /api/datasets/{id}/outliers?low=&high=.
// Thresholds default from configuration and are validated against the
// configured control ranges.
func (h *DatasetHandler) GetOutliers(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Defaults()

	low, err := h.thresholdParam(r, "low", cfg.LowThresholdDefault, cfg.LowThresholdMin, cfg.LowThresholdMax)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	high, err := h.thresholdParam(r, "high", cfg.HighThresholdDefault, cfg.HighThresholdMin, cfg.HighThresholdMax)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.OutlierReport(r.Context(), chi.URLParam(r, "id"), low, high)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// Export handles GET /api/datasets/{id}/export: the cleaned table as a
// CSV attachment.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	// Buffer the export so a service error can still become a problem
	// response; cleaned tables are small by construction.
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), chi.URLParam(r, "id"), &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "cleaned_revenue_data.csv"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Delete handles DELETE /api/datasets/{id}: cache invalidation.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

// thresholdParam parses an optional float query parameter and checks
// it against the configured widget range.
func (h *DatasetHandler) thresholdParam(r *http.Request, name string, def, min, max float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apierrors.ErrValidation(name, "Threshold must be a number")
	}

	if err := h.validate.Var(value, fmt.Sprintf("gte=%g,lte=%g", min, max)); err != nil {
		return 0, apierrors.ErrValidation(name,
			fmt.Sprintf("Threshold must be between %g and %g", min, max))
	}
	return value, nil
}

// handleServiceError translates service errors before rendering.
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrDatasetNotFound) {
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
