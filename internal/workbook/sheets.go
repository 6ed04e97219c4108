package workbook

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsLoader pulls spreadsheet content through the Google Sheets API, so
// a workbook that lives in Drive can feed the same pipeline as an uploaded
// file. Read-only access with an API key is enough; the spreadsheet must be
// link-readable.
type SheetsLoader struct {
	logger  *slog.Logger
	service *sheets.Service
}

// NewSheetsLoader builds a loader authenticated with the given API key.
func NewSheetsLoader(ctx context.Context, apiKey string, logger *slog.Logger) (*SheetsLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey == "" {
		return nil, fmt.Errorf("google sheets api key is not configured")
	}

	service, err := sheets.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsLoader{logger: logger, service: service}, nil
}

// Load reads every sheet of the spreadsheet into a Grid. Values arrive in
// their formatted form, which is exactly what the cell normalizer expects.
func (l *SheetsLoader) Load(ctx context.Context, spreadsheetID string) (*Grid, error) {
	meta, err := l.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet %s: %w", spreadsheetID, err)
	}

	gridSheets := make([]Sheet, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties == nil {
			continue
		}
		title := sh.Properties.Title

		resp, err := l.service.Spreadsheets.Values.Get(spreadsheetID, title).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", title, err)
		}

		rows := make([][]string, 0, len(resp.Values))
		for _, rawRow := range resp.Values {
			row := make([]string, 0, len(rawRow))
			for _, cell := range rawRow {
				row = append(row, fmt.Sprintf("%v", cell))
			}
			rows = append(rows, row)
		}
		gridSheets = append(gridSheets, Sheet{Name: title, Rows: rows})
	}

	if len(gridSheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s contains no sheets", spreadsheetID)
	}

	grid := NewGrid(gridSheets...)
	l.logger.InfoContext(ctx, "google spreadsheet loaded",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.Int("sheet_count", len(gridSheets)),
		slog.String("fingerprint", shortDigest(grid.Fingerprint())))

	return grid, nil
}
