package services

import "errors"

// ErrDatasetNotFound is returned when the requested dataset ID is not
// in the session cache; the user must (re-)upload the file.
var ErrDatasetNotFound = errors.New("dataset not found")
