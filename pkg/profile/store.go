package profile

import "context"

// Profile is a user's persisted experiment assignments: experiment id
// to variation id.
type Profile struct {
	UserID    string
	Decisions map[string]string
}

// Variation returns the stored variation id for an experiment.
func (p Profile) Variation(experimentID string) (string, bool) {
	id, ok := p.Decisions[experimentID]
	return id, ok
}

// Store persists sticky bucketing decisions. Implementations must treat
// Lookup misses as ErrNotFound, not as empty profiles, so callers can
// tell "new user" from "backend down". Save is last-write-wins:
// concurrent decisions for the same user may race and that is accepted.
type Store interface {
	// Lookup returns the user's profile or ErrNotFound.
	Lookup(ctx context.Context, userID string) (Profile, error)

	// Save records one (experiment, variation) assignment for the user,
	// creating the profile if needed.
	Save(ctx context.Context, userID, experimentID, variationID string) error
}
