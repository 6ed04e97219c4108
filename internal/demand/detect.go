package demand

import (
	"log/slog"
	"strings"

	"demandcli/internal/workbook"
)

// Default scanning bounds. A planning workbook keeps its header within the
// first screenful; bounding the scan keeps detection linear in sheet size.
const (
	DefaultHeaderScanRows  = 20
	DefaultHeaderScanCols  = 30
	DefaultProductScanCols = 3
	DefaultMinMonthHeaders = 3
	DefaultBlockDepth      = 30
)

// DefaultSeedProducts lists the product codes the detector matches exactly
// before falling back to structural matching. Configurable; the seed list
// aids detection but never restricts it.
var DefaultSeedProducts = []string{
	"MCT360", "MCT165", "MCTSTICK10", "MCTSTICK30", "MCTSTICK16", "MCTITTO_C",
}

// Product is a discovered identifier plus the sheet it was found on. The
// same code on two sheets yields two Products; merging them is the dataset
// builder's concern, not the detector's.
type Product struct {
	Code  string
	Sheet string
}

// MonthColumn binds one sheet column to the month its header resolved to.
type MonthColumn struct {
	Col   int
	Month MonthKey
}

// BlockKind discriminates the two table shapes the detector recognizes.
type BlockKind int

const (
	// KindWide is the classic layout: one product per row, one month per
	// column.
	KindWide BlockKind = iota
	// KindLong is the tidy layout: one (product, month, demand) triple per
	// row under labelled columns.
	KindLong
)

// Block is one detected region of one sheet. For wide blocks, Row is the
// product row and Columns the month columns; values run from Row down to
// EndRow (exclusive). For long blocks the column indices locate the
// product, month, demand, and optional per-unit consumption columns, and
// the products inside are discovered by the extractor.
type Block struct {
	Kind    BlockKind
	Product Product
	Sheet   workbook.Sheet

	HeaderRow int // -1 when the region came from the positional layout
	Row       int
	EndRow    int
	Columns   []MonthColumn

	ProductCol int
	MonthCol   int
	DemandCol  int
	PerUnitCol int // -1 when the sheet carries no consumption column
}

// DetectorConfig bounds the scan and seeds product matching. The zero
// value is not usable; start from DefaultDetectorConfig.
type DetectorConfig struct {
	SeedProducts    []string
	HeaderScanRows  int
	HeaderScanCols  int
	ProductScanCols int
	MinMonthHeaders int
	BlockDepth      int
}

// DefaultDetectorConfig returns the standard scanning bounds and seed list.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		SeedProducts:    DefaultSeedProducts,
		HeaderScanRows:  DefaultHeaderScanRows,
		HeaderScanCols:  DefaultHeaderScanCols,
		ProductScanCols: DefaultProductScanCols,
		MinMonthHeaders: DefaultMinMonthHeaders,
		BlockDepth:      DefaultBlockDepth,
	}
}

// Detector scans workbook grids for product blocks. It holds only
// configuration and a logger, so one Detector serves concurrent
// extractions without coordination.
type Detector struct {
	config DetectorConfig
	logger *slog.Logger
	seeds  []string
}

// NewDetector creates a detector with the given configuration.
func NewDetector(config DetectorConfig, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if config.HeaderScanRows <= 0 {
		config.HeaderScanRows = DefaultHeaderScanRows
	}
	if config.HeaderScanCols <= 0 {
		config.HeaderScanCols = DefaultHeaderScanCols
	}
	if config.ProductScanCols <= 0 {
		config.ProductScanCols = DefaultProductScanCols
	}
	if config.MinMonthHeaders <= 0 {
		config.MinMonthHeaders = DefaultMinMonthHeaders
	}
	if config.BlockDepth <= 0 {
		config.BlockDepth = DefaultBlockDepth
	}

	seeds := make([]string, 0, len(config.SeedProducts))
	for _, s := range config.SeedProducts {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			seeds = append(seeds, s)
		}
	}

	return &Detector{
		config: config,
		logger: logger.With(slog.String("component", "detector")),
		seeds:  seeds,
	}
}

// DetectBlocks scans every sheet of the grid and returns the detected
// product blocks in sheet-then-row order. It fails only structurally: an
// empty grid, no month headers anywhere, or no product rows anywhere all
// return a *StructureError listing what is missing. Per-sheet oddities
// degrade locally — a sheet without a header row falls back to the
// positional fiscal layout as long as some other sheet proved the workbook
// carries monthly data.
func (d *Detector) DetectBlocks(grid *workbook.Grid) ([]Block, error) {
	if grid == nil || len(grid.Sheets()) == 0 {
		return nil, NewStructureError(MissingSheets)
	}
	if grid.IsEmpty() {
		return nil, NewStructureError(MissingMonthHeaders, MissingProductRows)
	}

	headersSeen := false
	var blocks []Block

	for _, sheet := range grid.Sheets() {
		if long, ok := d.detectLongBlock(sheet); ok {
			headersSeen = true
			blocks = append(blocks, long)
			continue
		}

		headerRow, columns := d.findHeaderRow(sheet)
		if headerRow >= 0 {
			headersSeen = true
		}
		blocks = append(blocks, d.detectWideBlocks(sheet, headerRow, columns)...)
	}

	if !headersSeen {
		// The positional fallback is not allowed to rescue a workbook that
		// shows no month header anywhere: that input is not a demand table.
		return nil, NewStructureError(MissingMonthHeaders)
	}
	if len(blocks) == 0 {
		return nil, NewStructureError(MissingProductRows)
	}

	d.logger.Debug("blocks detected",
		slog.Int("block_count", len(blocks)),
		slog.Int("sheet_count", len(grid.Sheets())))

	return blocks, nil
}

// findHeaderRow locates the first row whose cells resolve to at least
// MinMonthHeaders distinct months, and returns that row's month columns.
// Returns -1 when no row in the scan window qualifies.
func (d *Detector) findHeaderRow(sheet workbook.Sheet) (int, []MonthColumn) {
	rows := sheet.RowCount()
	if rows > d.config.HeaderScanRows {
		rows = d.config.HeaderScanRows
	}

	for row := 0; row < rows; row++ {
		var columns []MonthColumn
		seen := make(map[MonthKey]bool)
		for col := 0; col < d.config.HeaderScanCols; col++ {
			key, ok := NormalizeMonth(sheet.Cell(row, col))
			if !ok {
				continue
			}
			columns = append(columns, MonthColumn{Col: col, Month: key})
			seen[key] = true
		}
		if len(seen) >= d.config.MinMonthHeaders {
			return row, columns
		}
	}
	return -1, nil
}

// positionalColumns builds the fixed fiscal region, columns D..O mapping
// to April..March, for sheets that carry values without a header row.
func positionalColumns() []MonthColumn {
	columns := make([]MonthColumn, 0, fiscalColumnCount)
	for col := firstFiscalColumn; col < firstFiscalColumn+fiscalColumnCount; col++ {
		key, _ := MonthFromColumn(col)
		columns = append(columns, MonthColumn{Col: col, Month: key})
	}
	return columns
}

// detectWideBlocks walks the sheet's rows looking for product tokens in
// the leading columns. headerRow is -1 when the sheet has no header row;
// the fiscal positional layout serves as the region then.
func (d *Detector) detectWideBlocks(sheet workbook.Sheet, headerRow int, columns []MonthColumn) []Block {
	if len(columns) == 0 {
		columns = positionalColumns()
	}

	var blocks []Block
	seen := make(map[string]bool)
	var productRows []int

	// Products live under their header row; titles and notes above it are
	// never product rows. Without a header row the whole sheet is fair game.
	firstRow := 0
	if headerRow >= 0 {
		firstRow = headerRow + 1
	}

	for row := firstRow; row < sheet.RowCount(); row++ {
		code, ok := d.matchProduct(sheet, row, columns)
		if !ok {
			continue
		}
		upper := strings.ToUpper(code)
		if seen[upper] {
			d.logger.Debug("duplicate product row skipped",
				slog.String("product", code),
				slog.String("sheet", sheet.Name),
				slog.Int("row", row))
			continue
		}
		seen[upper] = true
		productRows = append(productRows, row)
		blocks = append(blocks, Block{
			Kind:      KindWide,
			Product:   Product{Code: code, Sheet: sheet.Name},
			Sheet:     sheet,
			HeaderRow: headerRow,
			Row:       row,
			Columns:   columns,
		})
	}

	// A block's values end where the next product starts, bounded by the
	// configured depth.
	for i := range blocks {
		end := blocks[i].Row + d.config.BlockDepth
		for _, next := range productRows {
			if next > blocks[i].Row && next < end {
				end = next
			}
		}
		if end > sheet.RowCount() {
			end = sheet.RowCount()
		}
		blocks[i].EndRow = end
	}

	return blocks
}

// matchProduct runs the ordered matcher list over one row's leading
// columns: the seed stage first, then the structural stage. The structural
// stage additionally requires at least one numeric cell in the month
// region of the same row, so stray labels do not become products.
func (d *Detector) matchProduct(sheet workbook.Sheet, row int, columns []MonthColumn) (string, bool) {
	for col := 0; col < d.config.ProductScanCols; col++ {
		token := strings.TrimSpace(sheet.Cell(row, col))
		if token == "" {
			continue
		}
		if d.matchSeed(token) {
			return token, true
		}
	}

	for col := 0; col < d.config.ProductScanCols; col++ {
		token := strings.TrimSpace(sheet.Cell(row, col))
		if token == "" {
			continue
		}
		if ClassifyCell(token) != RoleCode {
			continue
		}
		if d.rowHasNumeric(sheet, row, columns) {
			return token, true
		}
	}

	return "", false
}

// matchSeed reports whether the token matches a seed code, by containment
// in either direction. "MCT360-NEW" matches seed "MCT360", and "MCT" in a
// cell matches nothing shorter than itself.
func (d *Detector) matchSeed(token string) bool {
	upper := strings.ToUpper(token)
	for _, seed := range d.seeds {
		if strings.Contains(upper, seed) || strings.Contains(seed, upper) {
			return true
		}
	}
	return false
}

// rowHasNumeric reports whether any cell of the row within the month
// region, or in the rows directly below to the block depth, parses as a
// number.
func (d *Detector) rowHasNumeric(sheet workbook.Sheet, row int, columns []MonthColumn) bool {
	depth := row + d.config.BlockDepth
	if depth > sheet.RowCount() {
		depth = sheet.RowCount()
	}
	for r := row; r < depth; r++ {
		for _, mc := range columns {
			if NormalizeValue(sheet.Cell(r, mc.Col)).Valid {
				return true
			}
		}
		// Only the product row itself and its immediate continuation rows
		// count; a number thirty rows down is another table.
		if r > row+2 {
			break
		}
	}
	return false
}

// Long-format header keys, lowercased. The Japanese forms come from the
// planning sheets this engine was built against.
var (
	longProductKeys = []string{"product", "item", "sku", "code", "品目", "製品"}
	longMonthKeys   = []string{"month", "period", "月", "年月"}
	longDemandKeys  = []string{"demand", "usage", "consumption", "qty", "quantity", "出荷", "需要"}
	longPerUnitKeys = []string{"per_unit_consumption", "per unit consumption", "unit usage", "per unit", "原単位"}
)

// detectLongBlock checks whether the sheet is a tidy table: a header row
// naming a product column, a month column, and a demand column. One long
// block covers the whole sheet; the extractor splits it into per-product
// series.
func (d *Detector) detectLongBlock(sheet workbook.Sheet) (Block, bool) {
	rows := sheet.RowCount()
	if rows > d.config.HeaderScanRows {
		rows = d.config.HeaderScanRows
	}

	for row := 0; row < rows; row++ {
		productCol, monthCol, demandCol, perUnitCol := -1, -1, -1, -1
		for col := 0; col < d.config.HeaderScanCols; col++ {
			header := strings.ToLower(strings.TrimSpace(sheet.Cell(row, col)))
			if header == "" {
				continue
			}
			switch {
			case productCol < 0 && matchesKey(header, longProductKeys):
				productCol = col
			case monthCol < 0 && matchesKey(header, longMonthKeys):
				monthCol = col
			case demandCol < 0 && matchesKey(header, longDemandKeys):
				demandCol = col
			case perUnitCol < 0 && matchesKey(header, longPerUnitKeys):
				perUnitCol = col
			}
		}
		if productCol >= 0 && monthCol >= 0 && demandCol >= 0 {
			return Block{
				Kind:       KindLong,
				Sheet:      sheet,
				HeaderRow:  row,
				Row:        row + 1,
				EndRow:     sheet.RowCount(),
				ProductCol: productCol,
				MonthCol:   monthCol,
				DemandCol:  demandCol,
				PerUnitCol: perUnitCol,
			}, true
		}
	}
	return Block{}, false
}

// matchesKey reports whether a lowered header matches any of the keys,
// exactly or with the key as a leading word ("product code" → product).
func matchesKey(header string, keys []string) bool {
	for _, key := range keys {
		if header == key || strings.HasPrefix(header, key+" ") || strings.HasPrefix(header, key+"_") {
			return true
		}
	}
	return false
}
