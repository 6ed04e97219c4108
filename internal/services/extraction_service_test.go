package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcli/internal/config"
	"demandcli/internal/demand"
	ws "demandcli/internal/websocket"
	"demandcli/pkg/contracts/domain"
)

// recordingNotifier captures stage events for assertions
type recordingNotifier struct {
	mu       sync.Mutex
	stages   []string
	complete int
	errors   []string
}

func (n *recordingNotifier) BroadcastStage(_ context.Context, event ws.StageEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stages = append(n.stages, event.Stage)
}

func (n *recordingNotifier) BroadcastComplete(_ context.Context, _ string, _ int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.complete++
}

func (n *recordingNotifier) BroadcastError(_ context.Context, _ string, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func newTestService(notifier ProgressNotifier) *ExtractionService {
	cfg := config.Default().Extraction
	cfg.ConsumptionRates = map[string]float64{"MCT360": 0.36}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExtractionService(cfg, nil, notifier, nil, logger)
}

func demandSheet() domain.GridSheet {
	return domain.GridSheet{
		Name: "Plan",
		Rows: [][]string{
			{"", "April", "May", "June"},
			{"MCT360", "720", "760", "800"},
			{"MCT165", "100", "", "140"},
		},
	}
}

func TestExtractGrid(t *testing.T) {
	svc := newTestService(nil)

	dataset, err := svc.ExtractGrid(context.Background(), domain.GridExtractionRequest{
		Sheets: []domain.GridSheet{demandSheet()},
	})
	require.NoError(t, err)
	require.Len(t, dataset.Products, 2)

	mct360 := dataset.Products[0]
	assert.Equal(t, "MCT360", mct360.ProductCode)
	assert.Equal(t, "Plan", mct360.SheetName)
	require.Len(t, mct360.Historical, 3)
	require.Len(t, mct360.Predicted, demand.DefaultHorizon)
	require.NotNil(t, mct360.Predicted[0].Value)
	assert.InDelta(t, 760.0, *mct360.Predicted[0].Value, 1e-9)

	// The gap in MCT165's May stays null
	mct165 := dataset.Products[1]
	require.Len(t, mct165.Historical, 3)
	assert.Nil(t, mct165.Historical[1].Value)

	assert.Equal(t, 2, dataset.Summary.Products)
	assert.NotEmpty(t, dataset.Fingerprint)
	assert.False(t, dataset.ProcessedAt.IsZero())
}

func TestExtractGridHorizonOverride(t *testing.T) {
	svc := newTestService(nil)

	dataset, err := svc.ExtractGrid(context.Background(), domain.GridExtractionRequest{
		Sheets:  []domain.GridSheet{demandSheet()},
		Horizon: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, dataset.Products)
	assert.Len(t, dataset.Products[0].Predicted, 2)
}

func TestExtractGridStructuralFailure(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.ExtractGrid(context.Background(), domain.GridExtractionRequest{
		Sheets: []domain.GridSheet{{
			Name: "Notes",
			Rows: [][]string{{"nothing", "to", "see"}},
		}},
	})
	require.Error(t, err)

	var structErr *demand.StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Contains(t, structErr.Missing, demand.MissingMonthHeaders)
}

func TestExtractGridNotifiesStages(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(notifier)

	_, err := svc.ExtractGrid(context.Background(), domain.GridExtractionRequest{
		Sheets: []domain.GridSheet{demandSheet()},
	})
	require.NoError(t, err)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []string{
		ws.StageDetecting,
		ws.StageExtracting,
		ws.StageForecasting,
		ws.StageAggregating,
	}, notifier.stages)
	assert.Equal(t, 1, notifier.complete)
	assert.Empty(t, notifier.errors)
}

func TestExtractGridNotifiesError(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(notifier)

	_, err := svc.ExtractGrid(context.Background(), domain.GridExtractionRequest{
		Sheets: []domain.GridSheet{{Name: "Empty", Rows: [][]string{{""}}}},
	})
	require.Error(t, err)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.NotEmpty(t, notifier.errors)
	assert.Zero(t, notifier.complete)
}

func TestExtractSheetDisabled(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.ExtractSheet(context.Background(), domain.SheetExtractionRequest{
		SpreadsheetID: "1abcdefghijklmnop",
	})
	assert.ErrorIs(t, err, ErrSheetsDisabled)
}

func TestExtractGridPlanUsesConfiguredRates(t *testing.T) {
	svc := newTestService(nil)

	dataset, err := svc.ExtractGrid(context.Background(), domain.GridExtractionRequest{
		Sheets: []domain.GridSheet{demandSheet()},
	})
	require.NoError(t, err)
	require.NotEmpty(t, dataset.Plan)

	var mct360 *domain.PlanLine
	for i := range dataset.Plan {
		if dataset.Plan[i].ProductCode == "MCT360" {
			mct360 = &dataset.Plan[i]
		}
	}
	require.NotNil(t, mct360)
	require.NotNil(t, mct360.ForecastDemand)
	require.NotNil(t, mct360.RawMaterialNeeded)
	assert.InDelta(t, 760.0, *mct360.ForecastDemand, 1e-9)
	assert.InDelta(t, 273.6, *mct360.RawMaterialNeeded, 0.01)
}
