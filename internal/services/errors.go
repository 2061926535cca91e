package services

import "errors"

// Dataset service errors
var (
	// Dataset errors
	ErrNoDataset = errors.New("no dataset loaded")

	// Query errors
	ErrInvalidQuery = errors.New("invalid query")

	// Export errors
	ErrUnknownReport = errors.New("unknown report")
	ErrUnknownFormat = errors.New("unknown export format")
)
