package dataprocessing

import (
	"sort"

	"revlens/pkg/contracts/domain"
)

// ABC classification boundaries as cumulative revenue percentages.
// Both bands are inclusive on the low side: a record landing exactly
// on 80% is still an A.
const (
	segmentABoundary = 80.0
	segmentBBoundary = 95.0
)

// RankByRevenue returns the records sorted by sales-with-tax
// descending. The sort is stable so ties and missing values keep their
// original row order; missing values rank below every present value.
func RankByRevenue(records []domain.CustomerRecord) []domain.CustomerRecord {
	ranked := make([]domain.CustomerRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].SalesWithTax, ranked[j].SalesWithTax
		if a.Valid != b.Valid {
			return a.Valid
		}
		return a.Float64 > b.Float64
	})
	return ranked
}

// PageCount returns the number of pages needed for n records at the
// given page size. An empty table still has one (empty) page so the
// page selector always has a valid position.
func PageCount(n, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := (n + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Page slices the 1-based page out of an already ranked table. An
// out-of-range page yields an empty slice; clamping the page number to
// [1, PageCount] is the caller's job.
func Page(ranked []domain.CustomerRecord, page, pageSize int) []domain.CustomerRecord {
	if page < 1 || pageSize <= 0 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(ranked) {
		return nil
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[start:end]
}

// TopN returns the first n records of an already ranked table.
func TopN(ranked []domain.CustomerRecord, n int) []domain.CustomerRecord {
	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Classify performs ABC segmentation over a ranked table: each record
// gets its running share of total sales-with-tax and the tier that
// share falls into (A up to 80%, B up to 95%, C beyond).
//
// Missing revenue values contribute zero to the running sum. When the
// total itself is zero every cumulative percent is defined as zero, so
// all records classify as A; rejecting such an upload would turn a
// valid (if degenerate) table into an error.
func Classify(ranked []domain.CustomerRecord) []domain.SegmentedRecord {
	var total float64
	for _, r := range ranked {
		if r.SalesWithTax.Valid {
			total += r.SalesWithTax.Float64
		}
	}

	segmented := make([]domain.SegmentedRecord, 0, len(ranked))
	var running float64
	for _, r := range ranked {
		if r.SalesWithTax.Valid {
			running += r.SalesWithTax.Float64
		}

		var percent float64
		if total != 0 {
			percent = running / total * 100
		}

		segmented = append(segmented, domain.SegmentedRecord{
			CustomerRecord:    r,
			CumulativePercent: percent,
			Segment:           classify(percent),
		})
	}
	return segmented
}

func classify(cumulativePercent float64) domain.Segment {
	switch {
	case cumulativePercent <= segmentABoundary:
		return domain.SegmentA
	case cumulativePercent <= segmentBBoundary:
		return domain.SegmentB
	default:
		return domain.SegmentC
	}
}

// FilterBySegment narrows a segmented table to one tier. FilterAll is
// a pass-through.
func FilterBySegment(segmented []domain.SegmentedRecord, filter domain.SegmentFilter) []domain.SegmentedRecord {
	if filter == domain.FilterAll {
		return segmented
	}

	filtered := make([]domain.SegmentedRecord, 0, len(segmented))
	for _, r := range segmented {
		if r.Segment == domain.Segment(filter) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// SegmentCounts tallies how many records fall into each tier.
func SegmentCounts(segmented []domain.SegmentedRecord) map[domain.Segment]int {
	counts := map[domain.Segment]int{
		domain.SegmentA: 0,
		domain.SegmentB: 0,
		domain.SegmentC: 0,
	}
	for _, r := range segmented {
		counts[r.Segment]++
	}
	return counts
}

// Outliers splits a table against two independent thresholds: records
// strictly below low (possible churn) and strictly above high (spikes
// to review). Records with missing revenue appear in neither set, and
// empty sets are a normal result. The thresholds are not required to
// be ordered relative to each other.
func Outliers(records []domain.CustomerRecord, low, high float64) (lowRevenue, spikes []domain.CustomerRecord) {
	lowRevenue = make([]domain.CustomerRecord, 0)
	spikes = make([]domain.CustomerRecord, 0)
	for _, r := range records {
		if !r.SalesWithTax.Valid {
			continue
		}
		if r.SalesWithTax.Float64 < low {
			lowRevenue = append(lowRevenue, r)
		}
		if r.SalesWithTax.Float64 > high {
			spikes = append(spikes, r)
		}
	}
	return lowRevenue, spikes
}

// Summarize computes the headline metrics: total and average revenue
// over present sales-with-tax values, and the distinct customer count.
func Summarize(records []domain.CustomerRecord) domain.Summary {
	var (
		total float64
		n     int
	)
	names := make(map[string]struct{}, len(records))
	for _, r := range records {
		names[r.Name] = struct{}{}
		if r.SalesWithTax.Valid {
			total += r.SalesWithTax.Float64
			n++
		}
	}

	summary := domain.Summary{
		TotalRevenue:  total,
		CustomerCount: len(names),
		RecordCount:   len(records),
	}
	if n > 0 {
		summary.AverageRevenue = total / float64(n)
	}
	return summary
}
