// Command cleanse runs the upload pipeline headless: it cleans one
// spreadsheet and writes the validated table as CSV, the same output
// the dashboard's download endpoint serves.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"revlens/internal/config"
	"revlens/internal/dataprocessing"
	"revlens/internal/exporter"
	"revlens/internal/infrastructure"
)

func main() {
	inFile := flag.String("in", "", "input spreadsheet (.xlsx or .csv)")
	outFile := flag.String("out", "", "output CSV path (defaults to <in>_cleaned.csv)")
	bom := flag.Bool("bom", true, "prefix output with a UTF-8 BOM for Excel")
	flag.Parse()

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if *inFile == "" {
		logger.Error("missing required -in flag")
		flag.Usage()
		os.Exit(2)
	}

	out := *outFile
	if out == "" {
		base := (*inFile)[:len(*inFile)-len(filepath.Ext(*inFile))]
		out = base + "_cleaned.csv"
	}

	if err := run(logger, *inFile, out, *bom); err != nil {
		logger.Error("cleanse failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, inFile, outFile string, bom bool) error {
	content, err := os.ReadFile(inFile)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	ds, err := dataprocessing.ParseUpload(content, filepath.Base(inFile))
	if err != nil {
		return err
	}

	summary := dataprocessing.Summarize(ds.Records)
	logger.Info("dataset cleaned",
		slog.String("dataset_id", ds.ID),
		slog.Int("records", summary.RecordCount),
		slog.Int("rows_dropped", ds.RowsDropped),
		slog.Int("skipped_cells", ds.SkippedCells),
		slog.Float64("total_revenue", summary.TotalRevenue))

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	if err := exporter.NewCSVExporter(logger).WriteDataset(f, ds, exporter.WriteOptions{BOMPrefix: bom}); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("cleaned table written", slog.String("path", outFile))
	return nil
}
