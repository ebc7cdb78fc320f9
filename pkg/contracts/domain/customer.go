package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Canonical column names of a cleaned revenue table. Every upload must
// normalize to exactly this set, in this order.
const (
	ColumnCustomerName = "Customer Name"
	ColumnSales        = "Sales"
	ColumnSalesWithTax = "Sales With Tax"
)

// RequiredColumns returns the canonical column set in export order.
func RequiredColumns() []string {
	return []string{ColumnCustomerName, ColumnSales, ColumnSalesWithTax}
}

// NullFloat is a float64 that distinguishes a missing cell from zero.
// Cells that fail numeric cleaning become invalid rather than failing
// the whole load, and are excluded from sums and means downstream.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float wraps a present value.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// MarshalJSON renders missing values as JSON null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Float64, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// CustomerRecord is one cleaned row of the revenue table.
type CustomerRecord struct {
	Name         string    `json:"name"`
	Sales        NullFloat `json:"sales"`
	SalesWithTax NullFloat `json:"sales_with_tax"`
}

// Dataset is a cleaned, validated revenue table. It is immutable after
// creation; derived views are computed fresh on every request.
type Dataset struct {
	ID           string           `json:"id"`
	Filename     string           `json:"filename"`
	UploadedAt   time.Time        `json:"uploaded_at"`
	Records      []CustomerRecord `json:"records"`
	RowsDropped  int              `json:"rows_dropped"`
	SkippedCells int              `json:"skipped_cells"`
}

// Summary holds the headline dashboard metrics for a dataset.
type Summary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	CustomerCount  int     `json:"customer_count"`
	AverageRevenue float64 `json:"average_revenue"`
	RecordCount    int     `json:"record_count"`
}
