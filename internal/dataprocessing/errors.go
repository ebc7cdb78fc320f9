package dataprocessing

import (
	"fmt"
	"strings"

	"revlens/pkg/contracts/domain"
)

// FormatError reports an upload whose header does not normalize to the
// required column set. It is fatal to the load: no partial dataset is
// produced and the user must re-upload a corrected file.
type FormatError struct {
	// Columns is the column set found after normalization.
	Columns []string
}

func (e *FormatError) Error() string {
	required := domain.RequiredColumns()
	return fmt.Sprintf(
		"file format is not correct: columns must normalize to %q, %q and %q (got: %s)",
		required[0], required[1], required[2],
		strings.Join(e.Columns, ", "),
	)
}

// NewFormatError captures the offending column set.
func NewFormatError(columns []string) *FormatError {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &FormatError{Columns: cols}
}
