// Package decision turns a configuration snapshot, a user and their
// attributes into a single deterministic experiment or feature
// decision, with no network calls.
//
// For experiments the ladder runs in strict order: runtime forced
// variation, datafile whitelist, experiment status, mutual exclusion
// group, audience conditions, sticky profile, fresh bucketing. Earlier
// steps win outright — a forced variation is returned even when the
// audience would reject the user or the group would exclude them.
//
// For features, the flag's feature tests are tried in declared order;
// if none decides, the rollout rules run as a waterfall in which a
// matched rule owns the user: bucketing into the rule's unallocated
// remainder excludes the user instead of consulting later rules.
//
//	svc := decision.New(
//		decision.WithLogger(log),
//		decision.WithOverrides(decision.NewMapOverrides()),
//		decision.WithProfiles(profile.NewMemoryStore()),
//	)
//	d, err := svc.Feature(ctx, project, "checkout", decision.User{ID: "u1"})
//
// A (nil, nil) return is the explicit "no decision" outcome: the user
// is excluded or a configuration reference did not resolve. Dangling
// references and collaborator failures are logged and degrade; they
// never propagate.
package decision
