package dataprocessing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"revlens/pkg/contracts/domain"
)

// buildWorkbook writes rows into the first sheet of an in-memory XLSX
// file, starting at A1.
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseUpload_NormalizesHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []interface{}
	}{
		{
			name:   "canonical names",
			header: []interface{}{"Customer Name", "Sales", "Sales With Tax"},
		},
		{
			name:   "short names with mixed case",
			header: []interface{}{"NAME", "sales", "Sales with TAX"},
		},
		{
			name:   "surrounding whitespace",
			header: []interface{}{"  name ", " Sales", "Sales With Tax  "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := buildWorkbook(t, [][]interface{}{
				{"Customer Revenue Report"},
				tt.header,
				{"Alice", 100.0, 120.0},
			})

			ds, err := ParseUpload(content, "revenue.xlsx")
			require.NoError(t, err)
			require.Len(t, ds.Records, 1)
			assert.Equal(t, "Alice", ds.Records[0].Name)
			assert.Equal(t, domain.Float(120), ds.Records[0].SalesWithTax)
		})
	}
}

func TestParseUpload_FormatError(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]interface{}
	}{
		{
			name: "missing column",
			rows: [][]interface{}{
				{"title"},
				{"Customer Name", "Sales"},
				{"Alice", 100.0},
			},
		},
		{
			name: "extra column",
			rows: [][]interface{}{
				{"title"},
				{"Customer Name", "Sales", "Sales With Tax", "Region"},
				{"Alice", 100.0, 120.0, "South"},
			},
		},
		{
			name: "unrecognized spelling is not fuzzy matched",
			rows: [][]interface{}{
				{"title"},
				{"Customer", "Sales", "Sales With Tax"},
				{"Alice", 100.0, 120.0},
			},
		},
		{
			name: "no header row at all",
			rows: [][]interface{}{
				{"title"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := ParseUpload(buildWorkbook(t, tt.rows), "bad.xlsx")
			require.Error(t, err)
			assert.Nil(t, ds, "format errors must not produce partial results")

			var ferr *FormatError
			require.ErrorAs(t, err, &ferr)
			// The user-facing message names all three required columns.
			for _, col := range domain.RequiredColumns() {
				assert.Contains(t, err.Error(), col)
			}
		})
	}
}

func TestParseUpload_CurrencyCleaning(t *testing.T) {
	csv := strings.Join([]string{
		"Customer Revenue Report,,",
		"Customer Name,Sales,Sales With Tax",
		`Alice,"₹1,000.00","₹1,200.50"`,
		"Bob,$50,$60",
		"Carol,not-a-number,",
	}, "\n")

	ds, err := ParseUpload([]byte(csv), "revenue.csv")
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	assert.Equal(t, domain.Float(1200.50), ds.Records[0].SalesWithTax)
	assert.Equal(t, domain.Float(1000), ds.Records[0].Sales)
	assert.Equal(t, domain.Float(60), ds.Records[1].SalesWithTax)

	// Unparseable and empty cells become missing, never errors.
	assert.False(t, ds.Records[2].Sales.Valid)
	assert.False(t, ds.Records[2].SalesWithTax.Valid)
	assert.Equal(t, 1, ds.SkippedCells, "only the non-empty unparseable cell counts as skipped")
}

func TestParseUpload_DropsFooterAndBlankRows(t *testing.T) {
	content := buildWorkbook(t, [][]interface{}{
		{"Customer Revenue Report"},
		{"Customer Name", "Sales", "Sales With Tax"},
		{"Alice", 100.0, 120.0},
		{"Bob", 50.0, 60.0},
		{"TOTAL", 150.0, 180.0},
		{"", 1.0, 2.0},
	})

	ds, err := ParseUpload(content, "revenue.xlsx")
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "Alice", ds.Records[0].Name)
	assert.Equal(t, "Bob", ds.Records[1].Name)
	assert.Equal(t, 2, ds.RowsDropped)

	summary := Summarize(ds.Records)
	assert.InDelta(t, 180, summary.TotalRevenue, 1e-9)
	assert.InDelta(t, 90, summary.AverageRevenue, 1e-9)
	assert.Equal(t, 2, summary.CustomerCount)
}

func TestParseUpload_Deterministic(t *testing.T) {
	content := buildWorkbook(t, [][]interface{}{
		{"title"},
		{"name", "sales", "sales with tax"},
		{"Alice", 100.0, 120.0},
		{"Bob", 50.0, 60.0},
	})

	first, err := ParseUpload(content, "revenue.xlsx")
	require.NoError(t, err)
	second, err := ParseUpload(content, "revenue.xlsx")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "identical content must hash to the same dataset ID")
	assert.Equal(t, first.Records, second.Records)
}

func TestParseUpload_ShortRowsTolerated(t *testing.T) {
	csv := strings.Join([]string{
		"title",
		"Customer Name,Sales,Sales With Tax",
		"Alice,100",
		"Bob,50,60",
	}, "\n")

	ds, err := ParseUpload([]byte(csv), "revenue.csv")
	require.NoError(t, err)
	require.Len(t, ds.Records, 2)
	assert.False(t, ds.Records[0].SalesWithTax.Valid)
	assert.Equal(t, domain.Float(60), ds.Records[1].SalesWithTax)
}
