package audience

import "errors"

// Predefined errors for the audience package.
var (
	// ErrMalformedConditions indicates the raw condition payload does not
	// follow the datafile condition grammar.
	ErrMalformedConditions = errors.New("malformed audience conditions")
)
