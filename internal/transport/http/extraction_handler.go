package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "demandcli/internal/errors"
	"demandcli/internal/exporter"
	"demandcli/internal/services"
	"demandcli/pkg/contracts/domain"
)

// uploadField is the multipart form field carrying the workbook
const uploadField = "file"

// ExtractionHandler handles extraction HTTP requests
type ExtractionHandler struct {
	service       *services.ExtractionService
	errorHandler  *apierrors.ErrorHandler
	validate      *validator.Validate
	maxUploadSize int64
	logger        *slog.Logger
}

// NewExtractionHandler creates an extraction handler. maxUploadSize bounds
// workbook uploads in bytes.
func NewExtractionHandler(service *services.ExtractionService, errorHandler *apierrors.ErrorHandler, maxUploadSize int64, logger *slog.Logger) *ExtractionHandler {
	return &ExtractionHandler{
		service:       service,
		errorHandler:  errorHandler,
		validate:      validator.New(),
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "extraction_handler")),
	}
}

// Routes returns the extraction routes
func (h *ExtractionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.ExtractWorkbook)
	r.Post("/grid", h.ExtractGrid)
	r.Post("/sheet", h.ExtractSheet)

	// Export is stateless: it takes the same multipart upload and answers
	// with a workbook attachment instead of JSON
	r.Get("/export", h.Export)
	r.Post("/export", h.Export)

	return r
}

// ExtractWorkbook handles POST /api/extraction
func (h *ExtractionHandler) ExtractWorkbook(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.extractUpload(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, dataset)
}

// Export handles /api/extraction/export: same extraction, xlsx or csv out
func (h *ExtractionHandler) Export(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.extractUpload(w, r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="demand-forecast-%s.xlsx"`, stamp))
		if err := exporter.WriteDatasetXLSX(w, dataset); err != nil {
			h.logger.ErrorContext(r.Context(), "xlsx export failed", slog.String("error", err.Error()))
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="demand-forecast-%s.csv"`, stamp))
		if err := exporter.WriteDatasetCSV(w, dataset); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
		}
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", fmt.Sprintf("unsupported export format: %s", format)))
	}
}

// extractUpload parses the multipart workbook upload and runs extraction
func (h *ExtractionHandler) extractUpload(w http.ResponseWriter, r *http.Request) (*domain.ChartDataset, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		// The limit error may surface wrapped or flattened to its message
		// depending on where multipart parsing hit it
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, apierrors.ErrUploadTooLarge
		}
		return nil, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, apierrors.ErrValidation(uploadField, "a workbook file is required")
	}
	defer file.Close()

	opts, err := h.parseOptions(r)
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(r.Context(), "workbook upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	return h.service.ExtractWorkbook(r.Context(), file, opts)
}

// ExtractGrid handles POST /api/extraction/grid
func (h *ExtractionHandler) ExtractGrid(w http.ResponseWriter, r *http.Request) {
	var req domain.GridExtractionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	dataset, err := h.service.ExtractGrid(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, dataset)
}

// ExtractSheet handles POST /api/extraction/sheet
func (h *ExtractionHandler) ExtractSheet(w http.ResponseWriter, r *http.Request) {
	var req domain.SheetExtractionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	dataset, err := h.service.ExtractSheet(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrSheetsDisabled) {
			h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, dataset)
}

func (h *ExtractionHandler) parseOptions(r *http.Request) (services.Options, error) {
	var opts services.Options
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil || horizon < 1 || horizon > 24 {
			return opts, apierrors.ErrValidation("horizon", "horizon must be an integer between 1 and 24")
		}
		opts.Horizon = horizon
	}
	return opts, nil
}

func (h *ExtractionHandler) respond(w http.ResponseWriter, r *http.Request, dataset *domain.ChartDataset) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   dataset,
	})
}
