package domain

import "fmt"

// Segment is an ABC classification tier. A-customers carry the bulk of
// revenue, C-customers the tail.
type Segment string

const (
	SegmentA Segment = "A"
	SegmentB Segment = "B"
	SegmentC Segment = "C"
)

// SegmentFilter selects a segment for drill-down; FilterAll passes
// every record through.
type SegmentFilter string

const (
	FilterAll SegmentFilter = "All"
	FilterA   SegmentFilter = "A"
	FilterB   SegmentFilter = "B"
	FilterC   SegmentFilter = "C"
)

// ParseSegmentFilter validates a drill-down selection. An empty string
// means no filter.
func ParseSegmentFilter(s string) (SegmentFilter, error) {
	switch SegmentFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterA, FilterB, FilterC:
		return SegmentFilter(s), nil
	}
	return "", fmt.Errorf("invalid segment filter %q: must be one of All, A, B, C", s)
}

// SegmentedRecord is a CustomerRecord with its ABC classification and
// running share of total revenue, computed over the descending sort.
type SegmentedRecord struct {
	CustomerRecord
	CumulativePercent float64 `json:"cumulative_percent"`
	Segment           Segment `json:"segment"`
}
