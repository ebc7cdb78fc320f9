package http

import (
	"context"
	"io"

	"revlens/internal/config"
	"revlens/internal/services"
	"revlens/pkg/contracts/domain"
)

// DashboardServiceInterface defines the service contract consumed by
// the dataset handler. Kept as an interface for handler tests.
type DashboardServiceInterface interface {
	Defaults() config.DashboardConfig
	Ingest(ctx context.Context, filename string, content []byte) (*services.DatasetView, error)
	Summary(ctx context.Context, id string) (*services.DatasetView, error)
	RankedPage(ctx context.Context, id string, page int) (*services.RecordsPage, error)
	TopCustomers(ctx context.Context, id string) (*services.TopView, error)
	Segmentation(ctx context.Context, id string, filter domain.SegmentFilter) (*services.SegmentationView, error)
	OutlierReport(ctx context.Context, id string, low, high float64) (*services.OutlierReport, error)
	ExportCSV(ctx context.Context, id string, w io.Writer) error
	Invalidate(ctx context.Context, id string) error
}
