// Package dataprocessing turns a raw spreadsheet upload into a cleaned
// revenue dataset and computes the analytical views served by the
// dashboard.
//
// # Architecture
//
// The package has two halves:
//
// 1. Loader: reads an XLSX or CSV upload, normalizes the header,
// cleans currency-formatted numbers and drops invalid rows.
//
// 2. Analytics: pure functions over a cleaned dataset - revenue
// ranking with pagination, ABC/Pareto segmentation and threshold-based
// outlier reports.
//
// # Usage
//
//	ds, err := dataprocessing.ParseUpload(content, "revenue.xlsx")
//	if err != nil {
//	    var ferr *dataprocessing.FormatError
//	    if errors.As(err, &ferr) {
//	        // columns did not normalize to the required schema
//	    }
//	}
//	ranked := dataprocessing.RankByRevenue(ds.Records)
//	segmented := dataprocessing.Classify(ranked)
//
// All analytics are deterministic and side-effect free; nothing in this
// package holds state between calls.
package dataprocessing
