package demand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demandcli/internal/workbook"
)

func newTestDetector() *Detector {
	return NewDetector(DefaultDetectorConfig(), nil)
}

// wideRows is a classic planning layout: a title row, a month header row,
// and product rows with values.
var wideRows = [][]string{
	{"Monthly demand plan", "", "", ""},
	{"Product", "", "Apr", "May", "Jun", "Jul"},
	{"MCT360", "", "720", "760", "800", ""},
	{"MCT165", "", "120", "", "140", "150"},
	{"", "", "", "", "", ""},
}

func TestDetectBlocksWideLayout(t *testing.T) {
	grid := workbook.NewGridFromRows("Plan", wideRows)

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	first := blocks[0]
	assert.Equal(t, KindWide, first.Kind)
	assert.Equal(t, "MCT360", first.Product.Code)
	assert.Equal(t, "Plan", first.Product.Sheet)
	assert.Equal(t, 1, first.HeaderRow)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, 3, first.EndRow, "block ends where the next product starts")
	require.Len(t, first.Columns, 4)
	assert.Equal(t, MonthKey{Month: 4}, first.Columns[0].Month)

	assert.Equal(t, "MCT165", blocks[1].Product.Code)
}

func TestDetectBlocksStructuralMatchForUnknownCode(t *testing.T) {
	// XYZ-99 is not in the seed list but has the structural shape of a
	// code next to numeric cells, so it must still be detected.
	grid := workbook.NewGridFromRows("Plan", [][]string{
		{"Item", "Apr", "May", "Jun"},
		{"XYZ-99", "10", "20", "30"},
	})

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "XYZ-99", blocks[0].Product.Code)
}

func TestDetectBlocksSameCodeAcrossSheets(t *testing.T) {
	rows := [][]string{
		{"Product", "Apr", "May", "Jun"},
		{"MCT360", "100", "200", "300"},
	}
	grid := workbook.NewGrid(
		workbook.Sheet{Name: "Factory A", Rows: rows},
		workbook.Sheet{Name: "Factory B", Rows: rows},
	)

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Factory A", blocks[0].Product.Sheet)
	assert.Equal(t, "Factory B", blocks[1].Product.Sheet)
	assert.Equal(t, blocks[0].Product.Code, blocks[1].Product.Code)
}

func TestDetectBlocksDuplicateCodeOnOneSheetKeepsFirst(t *testing.T) {
	grid := workbook.NewGridFromRows("Plan", [][]string{
		{"Product", "Apr", "May", "Jun"},
		{"MCT360", "1", "2", "3"},
		{"mct360", "9", "9", "9"},
	})

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 1, blocks[0].Row)
}

func TestDetectBlocksPositionalFallback(t *testing.T) {
	// Sheet "Plan" proves the workbook carries monthly data; sheet "Raw"
	// has no header row, so its region comes from the fiscal D..O layout.
	headerless := make([][]string, 1)
	headerless[0] = []string{"MCT165", "", "", "500", "510", "520"}

	grid := workbook.NewGrid(
		workbook.Sheet{Name: "Plan", Rows: wideRows},
		workbook.Sheet{Name: "Raw", Rows: headerless},
	)

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	raw := blocks[2]
	assert.Equal(t, "Raw", raw.Product.Sheet)
	assert.Equal(t, -1, raw.HeaderRow)
	require.Len(t, raw.Columns, 12)
	assert.Equal(t, MonthKey{Month: 4}, raw.Columns[0].Month, "column D is April")
	assert.Equal(t, MonthKey{Month: 3}, raw.Columns[11].Month, "column O is March")
}

func TestDetectBlocksNoMonthHeadersAnywhere(t *testing.T) {
	grid := workbook.NewGridFromRows("Notes", [][]string{
		{"This sheet has", "no monthly", "structure"},
		{"MCT360", "but a known code", ""},
	})

	blocks, err := newTestDetector().DetectBlocks(grid)
	assert.Nil(t, blocks)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Contains(t, structErr.Missing, MissingMonthHeaders)
}

func TestDetectBlocksHeadersButNoProducts(t *testing.T) {
	grid := workbook.NewGridFromRows("Plan", [][]string{
		{"", "Apr", "May", "Jun"},
		{"", "", "", ""},
	})

	_, err := newTestDetector().DetectBlocks(grid)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Contains(t, structErr.Missing, MissingProductRows)
}

func TestDetectBlocksEmptyGrid(t *testing.T) {
	grid := workbook.NewGridFromRows("Empty", [][]string{{"", ""}, {"", ""}})

	_, err := newTestDetector().DetectBlocks(grid)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Contains(t, structErr.Missing, MissingMonthHeaders)
	assert.Contains(t, structErr.Missing, MissingProductRows)
}

func TestDetectBlocksNilGrid(t *testing.T) {
	_, err := newTestDetector().DetectBlocks(nil)

	var structErr *StructureError
	require.ErrorAs(t, err, &structErr)
	assert.Contains(t, structErr.Missing, MissingSheets)
}

func TestDetectLongBlock(t *testing.T) {
	grid := workbook.NewGridFromRows("Tidy", [][]string{
		{"品目", "月", "出荷", "原単位"},
		{"MCT360", "4月", "720", "0.25"},
		{"MCT360", "5月", "760", "0.25"},
		{"MCT165", "4月", "120", "0.4"},
	})

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	block := blocks[0]
	assert.Equal(t, KindLong, block.Kind)
	assert.Equal(t, 0, block.ProductCol)
	assert.Equal(t, 1, block.MonthCol)
	assert.Equal(t, 2, block.DemandCol)
	assert.Equal(t, 3, block.PerUnitCol)
	assert.Equal(t, 1, block.Row)
}

func TestDetectLongBlockEnglishHeaders(t *testing.T) {
	grid := workbook.NewGridFromRows("Tidy", [][]string{
		{"Product Code", "Month", "Demand"},
		{"ABC1", "January", "50"},
	})

	blocks, err := newTestDetector().DetectBlocks(grid)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindLong, blocks[0].Kind)
	assert.Equal(t, -1, blocks[0].PerUnitCol)
}

func TestClassifyCell(t *testing.T) {
	tests := []struct {
		raw  string
		want CellRole
	}{
		{raw: "", want: RoleBlank},
		{raw: "  ", want: RoleBlank},
		{raw: "Apr", want: RoleMonth},
		{raw: "4", want: RoleMonth}, // month wins over numeric for bare 1..12
		{raw: "720", want: RoleNumeric},
		{raw: "(1,234)", want: RoleNumeric},
		{raw: "MCT360", want: RoleCode},
		{raw: "XYZ-99", want: RoleCode},
		{raw: "1.2.3", want: RoleText},
		{raw: "a", want: RoleText},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyCell(tt.raw), "raw %q", tt.raw)
	}
}
