package sim

import "errors"

var (
	// ErrInvalidParameter indicates an out-of-range or malformed numeric
	// input. It is returned before any sampling happens; a run that fails
	// with it produced no partial results.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyInput indicates that a stage was handed no detection events
	// to work with. Correlating against no data is meaningless, so the
	// preprocessor reports it rather than emitting all-zero histograms.
	ErrEmptyInput = errors.New("no detection events")
)
