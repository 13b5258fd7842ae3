package apperrors

import "errors"

// Common errors used throughout the application
var (
	// Vector errors
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Embedding backend errors
	ErrModelInitialization = errors.New("embedding model initialization failed")

	// Record errors
	ErrRecordParse = errors.New("failed to parse vector record")

	// Query errors
	ErrEmptyQuery       = errors.New("query cannot be empty")
	ErrUnknownStoreType = errors.New("unknown store type (use project/user/both)")
)
