package profile

import "errors"

// Predefined errors for the profile package.
var (
	// ErrNotFound indicates no profile exists for the user.
	ErrNotFound = errors.New("user profile not found")

	// ErrInvalidProfile indicates empty identifiers were passed to Save.
	ErrInvalidProfile = errors.New("invalid user profile data")

	// ErrLookupFailed indicates the backend failed to read a profile.
	ErrLookupFailed = errors.New("failed to look up user profile")

	// ErrSaveFailed indicates the backend failed to persist a profile.
	ErrSaveFailed = errors.New("failed to save user profile")

	// ErrStoreNotReady indicates the backend could not be reached during Open.
	ErrStoreNotReady = errors.New("profile store is not ready")
)
