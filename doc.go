// Package flagkit is an embedded feature-experimentation decision
// engine. A Client loads a datafile (the project configuration exported
// as JSON or YAML), and answers experiment and feature questions for a
// user entirely in process: no network call happens on the decision
// path, and the same datafile, user id and attributes always produce
// the same answer.
//
//	client, err := flagkit.New(payload,
//		flagkit.WithLogger(log),
//		flagkit.WithProfileStore(profile.NewMemoryStore()),
//	)
//	if err != nil {
//		return err
//	}
//
//	user := flagkit.User{ID: "user-42", Attributes: map[string]any{"plan": "gold"}}
//	on, err := client.IsFeatureEnabled(ctx, "checkout", user)
//
// Datafile updates are atomic: UpdateDatafile swaps the whole snapshot,
// so concurrent decisions each run against exactly one revision.
// Optional sticky bucketing keeps assignments stable across datafile
// changes through a pluggable profile store (in-memory, Redis, Postgres
// or MongoDB).
package flagkit
