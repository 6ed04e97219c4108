package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"demandcli/internal/config"
	"demandcli/internal/demand"
	apperrors "demandcli/internal/errors"
	"demandcli/internal/infrastructure"
	ws "demandcli/internal/websocket"
	"demandcli/internal/workbook"
	"demandcli/pkg/contracts/domain"
)

// ProgressNotifier receives stage events as an extraction run advances.
// The WebSocket hub satisfies it; a nil notifier disables progress streaming.
type ProgressNotifier interface {
	BroadcastStage(ctx context.Context, event ws.StageEvent)
	BroadcastComplete(ctx context.Context, extractionID string, products int)
	BroadcastError(ctx context.Context, extractionID, message string)
}

// Options override per-request parts of the extraction configuration. Zero
// fields fall back to the configured defaults.
type Options struct {
	Horizon int
}

// ExtractionService runs the full pipeline over a workbook grid: block
// detection, series extraction, forecasting, requirement planning and
// dataset assembly. Safe for concurrent use.
type ExtractionService struct {
	cfg      config.ExtractionConfig
	sheets   *workbook.SheetsLoader
	notifier ProgressNotifier
	metrics  *infrastructure.ExtractionMetrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewExtractionService creates the service. sheets, notifier and metrics may
// each be nil; the corresponding capability is then disabled.
func NewExtractionService(cfg config.ExtractionConfig, sheets *workbook.SheetsLoader, notifier ProgressNotifier, metrics *infrastructure.ExtractionMetrics, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ExtractionService{
		cfg:      cfg,
		sheets:   sheets,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "extraction_service")),
		tracer:   otel.Tracer(infrastructure.MeterName),
	}
}

// ErrSheetsDisabled is returned by ExtractSheet when no Google Sheets API
// key is configured.
var ErrSheetsDisabled = fmt.Errorf("google sheets loading is not configured")

// ExtractWorkbook loads an xlsx workbook from r and extracts it.
func (s *ExtractionService) ExtractWorkbook(ctx context.Context, r io.Reader, opts Options) (*domain.ChartDataset, error) {
	ctx, span := s.tracer.Start(ctx, "extraction.workbook")
	defer span.End()

	extractionID := uuid.New().String()
	s.notifyStage(ctx, extractionID, ws.StageLoading, "parsing workbook")

	grid, err := workbook.LoadWorkbookReader(r)
	if err != nil {
		span.SetStatus(codes.Error, "workbook load failed")
		s.notifyError(ctx, extractionID, err)
		return nil, apperrors.NewParsingError("workbook could not be parsed", err)
	}

	return s.run(ctx, extractionID, grid, opts, "workbook")
}

// ExtractGrid runs extraction over raw tabular cells submitted directly.
func (s *ExtractionService) ExtractGrid(ctx context.Context, req domain.GridExtractionRequest) (*domain.ChartDataset, error) {
	ctx, span := s.tracer.Start(ctx, "extraction.grid")
	defer span.End()

	sheets := make([]workbook.Sheet, 0, len(req.Sheets))
	for _, gs := range req.Sheets {
		sheets = append(sheets, workbook.Sheet{Name: gs.Name, Rows: gs.Rows})
	}

	extractionID := uuid.New().String()
	return s.run(ctx, extractionID, workbook.NewGrid(sheets...), Options{Horizon: req.Horizon}, "grid")
}

// ExtractSheet loads a Google spreadsheet and extracts it. Returns
// ErrSheetsDisabled when the loader was not configured.
func (s *ExtractionService) ExtractSheet(ctx context.Context, req domain.SheetExtractionRequest) (*domain.ChartDataset, error) {
	if s.sheets == nil {
		return nil, ErrSheetsDisabled
	}

	ctx, span := s.tracer.Start(ctx, "extraction.sheet",
		trace.WithAttributes(attribute.String("spreadsheet_id", req.SpreadsheetID)))
	defer span.End()

	extractionID := uuid.New().String()
	s.notifyStage(ctx, extractionID, ws.StageLoading, "fetching spreadsheet")

	grid, err := s.sheets.Load(ctx, req.SpreadsheetID)
	if err != nil {
		span.SetStatus(codes.Error, "spreadsheet load failed")
		s.notifyError(ctx, extractionID, err)
		return nil, apperrors.NewNetworkError(fmt.Sprintf("loading spreadsheet %s failed", req.SpreadsheetID), err)
	}

	return s.run(ctx, extractionID, grid, Options{Horizon: req.Horizon}, "sheet")
}

// run executes the pipeline stages over an already loaded grid.
func (s *ExtractionService) run(ctx context.Context, extractionID string, grid *workbook.Grid, opts Options, source string) (*domain.ChartDataset, error) {
	start := time.Now()

	horizon := opts.Horizon
	if horizon <= 0 {
		horizon = s.cfg.Horizon
	}
	if horizon <= 0 {
		horizon = demand.DefaultHorizon
	}

	logger := s.logger.With(
		slog.String("extraction_id", extractionID),
		slog.String("source", source),
		slog.String("fingerprint", grid.Fingerprint()),
	)
	logger.InfoContext(ctx, "extraction started",
		slog.Int("sheets", len(grid.Sheets())),
		slog.Int("horizon", horizon))

	s.notifyStage(ctx, extractionID, ws.StageDetecting, "scanning sheets for demand tables")

	detector := demand.NewDetector(s.detectorConfig(), logger)
	blocks, err := detector.DetectBlocks(grid)
	if err != nil {
		s.metrics.RecordStructuralFailure(ctx, source)
		logger.WarnContext(ctx, "extraction failed", slog.String("error", err.Error()))
		s.notifyError(ctx, extractionID, err)
		return nil, err
	}

	s.notifyStage(ctx, extractionID, ws.StageExtracting, fmt.Sprintf("reading %d detected blocks", len(blocks)))

	extractor := demand.NewExtractor(logger)
	var results []demand.ProductResult
	for _, block := range blocks {
		results = append(results, extractor.Extract(block)...)
	}

	s.notifyStage(ctx, extractionID, ws.StageForecasting, "predicting future demand")

	products := make([]demand.ForecastedProduct, 0, len(results))
	for _, result := range results {
		products = append(products, demand.ForecastedProduct{
			Result:    result,
			Predicted: demand.Forecast(result.Series, horizon),
			Method:    demand.MethodLabel(result.Series),
		})
	}

	s.notifyStage(ctx, extractionID, ws.StageAggregating, "building chart dataset")

	plan := demand.BuildPlan(products, s.cfg.ConsumptionRates)
	dataset := demand.BuildDataset(products, plan, grid.Fingerprint(), time.Now().UTC())

	elapsed := time.Since(start)
	s.metrics.RecordExtraction(ctx, len(dataset.Products), elapsed.Seconds(), source)
	logger.InfoContext(ctx, "extraction completed",
		slog.Int("products", len(dataset.Products)),
		slog.Duration("duration", elapsed))

	if s.notifier != nil {
		s.notifier.BroadcastComplete(ctx, extractionID, len(dataset.Products))
	}
	return dataset, nil
}

func (s *ExtractionService) detectorConfig() demand.DetectorConfig {
	cfg := demand.DefaultDetectorConfig()
	if s.cfg.HeaderScanRows > 0 {
		cfg.HeaderScanRows = s.cfg.HeaderScanRows
	}
	if s.cfg.HeaderScanCols > 0 {
		cfg.HeaderScanCols = s.cfg.HeaderScanCols
	}
	if s.cfg.ProductScanCols > 0 {
		cfg.ProductScanCols = s.cfg.ProductScanCols
	}
	if s.cfg.MinMonthHeaders > 0 {
		cfg.MinMonthHeaders = s.cfg.MinMonthHeaders
	}
	if s.cfg.BlockDepth > 0 {
		cfg.BlockDepth = s.cfg.BlockDepth
	}
	if len(s.cfg.SeedProducts) > 0 {
		cfg.SeedProducts = s.cfg.SeedProducts
	}
	return cfg
}

func (s *ExtractionService) notifyStage(ctx context.Context, extractionID, stage, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastStage(ctx, ws.StageEvent{
		ExtractionID: extractionID,
		Stage:        stage,
		Message:      message,
	})
}

func (s *ExtractionService) notifyError(ctx context.Context, extractionID string, err error) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastError(ctx, extractionID, err.Error())
}
