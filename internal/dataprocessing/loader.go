package dataprocessing

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"revlens/pkg/contracts/domain"
)

// headerOffset is the number of rows above the header in an upload.
// The file format carries one title row before the column names.
const headerOffset = 1

// columnRenames maps lowercased, trimmed header cells to canonical
// column names. Matching is exact after case folding; anything else is
// left untouched and caught by schema validation.
var columnRenames = map[string]string{
	"name":           domain.ColumnCustomerName,
	"sales":          domain.ColumnSales,
	"sales with tax": domain.ColumnSalesWithTax,
}

// currencyReplacer strips currency symbols and thousands separators
// before numeric parsing.
var currencyReplacer = strings.NewReplacer("₹", "", "$", "", "€", "", "£", "", ",", "")

var xlsxMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// ParseUpload cleans a raw spreadsheet upload into an immutable
// Dataset. XLSX content is detected by magic bytes; anything else is
// parsed as delimited text. The dataset ID is derived from the content
// hash, so identical uploads always produce identical datasets.
func ParseUpload(content []byte, filename string) (*domain.Dataset, error) {
	var (
		rows [][]string
		err  error
	)
	if bytes.HasPrefix(content, xlsxMagic) {
		rows, err = readWorkbookRows(content)
	} else {
		rows, err = readDelimitedRows(content)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) <= headerOffset {
		return nil, NewFormatError(nil)
	}

	header := normalizeHeader(rows[headerOffset])
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		ID:         datasetID(content),
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
	}

	for _, row := range rows[headerOffset+1:] {
		name := strings.TrimSpace(cellAt(row, columns[domain.ColumnCustomerName]))
		if name == "" || strings.EqualFold(name, "total") {
			ds.RowsDropped++
			continue
		}

		sales, salesSkipped := cleanNumber(cellAt(row, columns[domain.ColumnSales]))
		withTax, taxSkipped := cleanNumber(cellAt(row, columns[domain.ColumnSalesWithTax]))
		if salesSkipped {
			ds.SkippedCells++
		}
		if taxSkipped {
			ds.SkippedCells++
		}

		ds.Records = append(ds.Records, domain.CustomerRecord{
			Name:         name,
			Sales:        sales,
			SalesWithTax: withTax,
		})
	}

	return ds, nil
}

// readWorkbookRows extracts the first sheet of an XLSX workbook.
func readWorkbookRows(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// readDelimitedRows parses comma-delimited text with ragged rows
// tolerated; the header schema check catches structural problems.
func readDelimitedRows(content []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited input: %w", err)
	}
	return rows, nil
}

// normalizeHeader trims whitespace and applies the canonical renames.
func normalizeHeader(raw []string) []string {
	header := make([]string, len(raw))
	for i, cell := range raw {
		name := strings.TrimSpace(cell)
		if canonical, ok := columnRenames[strings.ToLower(name)]; ok {
			name = canonical
		}
		header[i] = name
	}
	return header
}

// mapColumns validates that the normalized header is exactly the
// required column set and returns a name-to-index mapping.
func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := columns[name]; dup {
			return nil, NewFormatError(header)
		}
		columns[name] = i
	}

	if len(columns) != len(domain.RequiredColumns()) {
		return nil, NewFormatError(header)
	}
	for _, required := range domain.RequiredColumns() {
		if _, ok := columns[required]; !ok {
			return nil, NewFormatError(header)
		}
	}
	return columns, nil
}

// cellAt returns the cell at idx, tolerating short rows.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// cleanNumber coerces a currency-formatted cell to a number. Empty
// cells are missing; non-empty cells that still fail to parse are
// missing too, and reported as skipped so the dataset metadata can
// surface them.
func cleanNumber(cell string) (value domain.NullFloat, skipped bool) {
	trimmed := strings.TrimSpace(currencyReplacer.Replace(cell))
	if trimmed == "" {
		return domain.NullFloat{}, false
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.NullFloat{}, true
	}
	return domain.Float(v), false
}

// datasetID derives a stable identifier from the upload content.
func datasetID(content []byte) string {
	sum := sha256.Sum256(content)
	return fmt.Sprintf("%x", sum)[:16]
}
