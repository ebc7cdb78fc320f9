package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"revlens/pkg/contracts/domain"
)

// DefaultExportFilename is the attachment name offered for the cleaned
// table download.
const DefaultExportFilename = "cleaned_revenue_data.csv"

// CSVExporter streams cleaned datasets as delimited text.
type CSVExporter struct {
	logger *slog.Logger
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(logger *slog.Logger) *CSVExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVExporter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	// BOMPrefix adds a UTF-8 BOM so Excel recognizes the encoding.
	BOMPrefix bool
}

// WriteDataset writes the cleaned table: a header row with the
// canonical column names, one row per record, no index column.
// Missing numeric values export as empty cells.
func (e *CSVExporter) WriteDataset(w io.Writer, ds *domain.Dataset, options WriteOptions) error {
	e.logger.Debug("exporting dataset",
		slog.String("dataset_id", ds.ID),
		slog.Int("record_count", len(ds.Records)))

	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(domain.RequiredColumns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, record := range ds.Records {
		row := []string{
			record.Name,
			formatNullFloat(record.Sales),
			formatNullFloat(record.SalesWithTax),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
