package exporter

import (
	"fmt"

	"revlens/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	// Always format with exactly 2 decimal places for consistency
	// This ensures values like 13.4 appear as 13.40 in CSV
	return fmt.Sprintf("%.2f", f)
}

// formatNullFloat renders a missing value as an empty cell
func formatNullFloat(n domain.NullFloat) string {
	if !n.Valid {
		return ""
	}
	return formatFloat(n.Float64)
}
