package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"revlens/internal/config"
	"revlens/internal/dataprocessing"
	"revlens/internal/exporter"
	"revlens/pkg/contracts/domain"
)

// DatasetView summarizes an ingested dataset for the dashboard header.
type DatasetView struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	RowsDropped  int            `json:"rows_dropped"`
	SkippedCells int            `json:"skipped_cells"`
	Summary      domain.Summary `json:"summary"`
}

// RecordsPage is one page of the descending revenue ranking.
type RecordsPage struct {
	Page         int                     `json:"page"`
	PageSize     int                     `json:"page_size"`
	PageCount    int                     `json:"page_count"`
	TotalRecords int                     `json:"total_records"`
	Records      []domain.CustomerRecord `json:"records"`
}

// TopView is the fixed-size top ranking for the headline chart.
type TopView struct {
	Limit   int                     `json:"limit"`
	Records []domain.CustomerRecord `json:"records"`
}

// SegmentationView is the ABC segmentation table with its tier
// distribution, optionally narrowed to one tier.
type SegmentationView struct {
	Filter       domain.SegmentFilter     `json:"filter"`
	Records      []domain.SegmentedRecord `json:"records"`
	Distribution map[domain.Segment]int   `json:"distribution"`
	TotalRevenue float64                  `json:"total_revenue"`
}

// OutlierReport holds both threshold views: records below the low
// threshold (possible churn) and above the high one (spikes to
// review). Empty sets are a normal, reportable state.
type OutlierReport struct {
	LowThreshold  float64                 `json:"low_threshold"`
	HighThreshold float64                 `json:"high_threshold"`
	LowRevenue    []domain.CustomerRecord `json:"low_revenue"`
	Spikes        []domain.CustomerRecord `json:"spikes"`
}

// DashboardService computes the dashboard view-models over cached
// datasets. Every view is derived fresh from the immutable dataset on
// each call; only the cleaned table itself is cached.
type DashboardService struct {
	store    *DatasetStore
	exporter *exporter.CSVExporter
	cfg      config.DashboardConfig
	logger   *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store *DatasetStore, cfg config.DashboardConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:    store,
		exporter: exporter.NewCSVExporter(logger),
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
}

// Defaults exposes the configured control defaults so the presentation
// layer can initialize its widgets.
func (s *DashboardService) Defaults() config.DashboardConfig {
	return s.cfg
}

// Ingest cleans an upload and returns the dataset header view.
func (s *DashboardService) Ingest(ctx context.Context, filename string, content []byte) (*DatasetView, error) {
	ds, err := s.store.Ingest(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	return s.datasetView(ds), nil
}

// Summary returns the dataset header view for a cached dataset.
func (s *DashboardService) Summary(ctx context.Context, id string) (*DatasetView, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.datasetView(ds), nil
}

// RankedPage returns one page of the descending revenue ranking. The
// page number is clamped to [1, PageCount], mirroring the page
// selector widget.
func (s *DashboardService) RankedPage(ctx context.Context, id string, page int) (*RecordsPage, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	ranked := dataprocessing.RankByRevenue(ds.Records)
	pageCount := dataprocessing.PageCount(len(ranked), s.cfg.PageSize)
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}

	return &RecordsPage{
		Page:         page,
		PageSize:     s.cfg.PageSize,
		PageCount:    pageCount,
		TotalRecords: len(ranked),
		Records:      dataprocessing.Page(ranked, page, s.cfg.PageSize),
	}, nil
}

// TopCustomers returns the fixed-size top of the revenue ranking.
func (s *DashboardService) TopCustomers(ctx context.Context, id string) (*TopView, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	ranked := dataprocessing.RankByRevenue(ds.Records)
	return &TopView{
		Limit:   s.cfg.TopCustomers,
		Records: dataprocessing.TopN(ranked, s.cfg.TopCustomers),
	}, nil
}

// Segmentation returns the ABC segmentation view, optionally filtered
// to a single tier. The distribution always covers the whole dataset
// regardless of the drill-down filter.
func (s *DashboardService) Segmentation(ctx context.Context, id string, filter domain.SegmentFilter) (*SegmentationView, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	segmented := dataprocessing.Classify(dataprocessing.RankByRevenue(ds.Records))
	return &SegmentationView{
		Filter:       filter,
		Records:      dataprocessing.FilterBySegment(segmented, filter),
		Distribution: dataprocessing.SegmentCounts(segmented),
		TotalRevenue: dataprocessing.Summarize(ds.Records).TotalRevenue,
	}, nil
}

// OutlierReport computes both threshold views over a dataset.
func (s *DashboardService) OutlierReport(ctx context.Context, id string, low, high float64) (*OutlierReport, error) {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return nil, err
	}

	lowRevenue, spikes := dataprocessing.Outliers(ds.Records, low, high)
	s.logger.DebugContext(ctx, "outlier report computed",
		slog.String("dataset_id", id),
		slog.Float64("low_threshold", low),
		slog.Float64("high_threshold", high),
		slog.Int("low_revenue", len(lowRevenue)),
		slog.Int("spikes", len(spikes)))

	return &OutlierReport{
		LowThreshold:  low,
		HighThreshold: high,
		LowRevenue:    lowRevenue,
		Spikes:        spikes,
	}, nil
}

// ExportCSV streams the cleaned table as delimited text.
func (s *DashboardService) ExportCSV(ctx context.Context, id string, w io.Writer) error {
	ds, err := s.dataset(ctx, id)
	if err != nil {
		return err
	}
	return s.exporter.WriteDataset(w, ds, exporter.WriteOptions{BOMPrefix: true})
}

// Invalidate drops a dataset from the cache.
func (s *DashboardService) Invalidate(ctx context.Context, id string) error {
	if !s.store.Delete(id) {
		return ErrDatasetNotFound
	}
	s.logger.InfoContext(ctx, "dataset invalidated", slog.String("dataset_id", id))
	return nil
}

func (s *DashboardService) dataset(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, ok := s.store.Get(id)
	if !ok {
		s.logger.WarnContext(ctx, "dataset not in cache", slog.String("dataset_id", id))
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

func (s *DashboardService) datasetView(ds *domain.Dataset) *DatasetView {
	return &DatasetView{
		ID:           ds.ID,
		Filename:     ds.Filename,
		UploadedAt:   ds.UploadedAt,
		RowsDropped:  ds.RowsDropped,
		SkippedCells: ds.SkippedCells,
		Summary:      dataprocessing.Summarize(ds.Records),
	}
}
