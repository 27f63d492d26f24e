package decision

import "errors"

// Predefined errors for the decision package.
var (
	// ErrNilProject indicates a decide call received no configuration
	// snapshot. This is a caller bug, not a degradable condition.
	ErrNilProject = errors.New("nil project configuration")
)
