package decision

import (
	"github.com/flagkit/flagkit/pkg/audience"
	"github.com/flagkit/flagkit/pkg/datafile"
)

// Source tags where a feature decision came from: a feature test
// experiment or a rollout targeting rule.
type Source string

const (
	SourceExperiment Source = "experiment"
	SourceRollout    Source = "rollout"
)

// Decision is the immutable outcome of a decide call. Experiment is the
// originating experiment for SourceExperiment, and the matched rollout
// rule (which is experiment-shaped) for SourceRollout.
type Decision struct {
	Variation  *datafile.Variation
	Experiment *datafile.Experiment
	Source     Source
}

// Enabled reports whether the decided variation turns the owning
// feature on.
func (d *Decision) Enabled() bool {
	return d != nil && d.Variation != nil && d.Variation.FeatureEnabled
}

// User identifies who is being decided for.
type User struct {
	ID         string
	Attributes audience.Attributes

	// BucketingID, when non-empty, replaces the user id as the hash
	// input so distinct user ids can share one bucketing identity.
	// Entity ids and profile lookups still use ID.
	BucketingID string
}

// BucketingKey returns the identifier fed to the bucketing hash.
func (u User) BucketingKey() string {
	if u.BucketingID != "" {
		return u.BucketingID
	}
	return u.ID
}
