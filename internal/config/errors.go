package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoCorpus is returned when no corpus directory (or "db") is given.
	ErrNoCorpus = errors.New("no corpus specified: provide a corpus directory or \"db\"")

	// ErrInvalidAlpha is returned when the damping factor is outside (0, 1).
	ErrInvalidAlpha = errors.New("invalid alpha: must be greater than 0 and less than 1")

	// ErrInvalidTolerance is returned when the tolerance is not a positive number.
	ErrInvalidTolerance = errors.New("invalid tolerance: must be positive")

	// ErrInvalidMaxIterations is returned when the iteration cap is not positive.
	ErrInvalidMaxIterations = errors.New("invalid max iterations: must be positive")

	// ErrInvalidRepresentation is returned for anything but auto, dense or sparse.
	ErrInvalidRepresentation = errors.New("invalid matrix representation: must be auto, dense or sparse")

	// ErrInvalidTopN is returned when the report size is negative.
	ErrInvalidTopN = errors.New("invalid top: must be non-negative")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRankMode is returned for anything but sum or product.
	ErrInvalidRankMode = errors.New("invalid rank mode: must be sum or product")
)
