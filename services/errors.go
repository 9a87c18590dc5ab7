package services

import "errors"

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

var (
	// ErrDuplicateURL is returned when a feed URL is already registered.
	ErrDuplicateURL = errors.New("feed URL is already registered")
	// ErrSourceNotFound is returned for operations on an unknown source id.
	ErrSourceNotFound = errors.New("feed source not found")
	// ErrIngestionInProgress is returned when a pass is already running for
	// the same source. Two simultaneous passes would delete-then-insert the
	// same rows and interleave destructively.
	ErrIngestionInProgress = errors.New("ingestion already in progress for this source")
)
