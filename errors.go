package flagkit

import "errors"

// Predefined errors for the flagkit package.
var (
	// ErrEmptyDatafile indicates an empty payload was passed where a
	// datafile was required.
	ErrEmptyDatafile = errors.New("empty datafile payload")

	// ErrExperimentNotFound indicates the experiment key does not exist
	// in the current datafile revision.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrVariationNotFound indicates the variation key does not exist in
	// the experiment.
	ErrVariationNotFound = errors.New("variation not found")

	// ErrFeatureNotFound indicates the feature key does not exist in the
	// current datafile revision.
	ErrFeatureNotFound = errors.New("feature not found")

	// ErrVariableNotFound indicates the feature declares no variable
	// under the requested key.
	ErrVariableNotFound = errors.New("feature variable not found")

	// ErrVariableTypeMismatch indicates the variable exists but was
	// declared with a different type than the getter expects.
	ErrVariableTypeMismatch = errors.New("feature variable type mismatch")

	// ErrInvalidVariableValue indicates the variable's configured value
	// cannot be parsed as its declared type.
	ErrInvalidVariableValue = errors.New("invalid feature variable value")

	// ErrInvalidConfig indicates the environment configuration is
	// missing or malformed.
	ErrInvalidConfig = errors.New("invalid client configuration")
)
