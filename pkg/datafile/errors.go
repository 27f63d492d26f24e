package datafile

import "errors"

// Predefined errors for the datafile package.
var (
	// ErrMalformedDatafile indicates the payload could not be decoded or
	// violates a structural invariant (allocation order, dangling
	// audience reference, bad condition grammar).
	ErrMalformedDatafile = errors.New("malformed datafile")

	// ErrDatafileUnreadable indicates the datafile could not be read
	// from disk.
	ErrDatafileUnreadable = errors.New("failed to read datafile")

	// ErrUnsupportedFormat indicates the datafile extension maps to no
	// known decoder.
	ErrUnsupportedFormat = errors.New("unsupported datafile format")
)
