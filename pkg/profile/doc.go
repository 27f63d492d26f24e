// Package profile persists sticky bucketing decisions so a user's
// experiment assignment survives datafile changes and re-evaluations.
//
// The decision service treats the store as an optional collaborator: a
// hit short-circuits bucketing, a miss falls through to fresh
// bucketing, and any backend failure degrades to "proceed without
// stickiness" — it never fails a decision.
//
// Four backends are provided behind the same Store interface:
//
//	store := profile.NewMemoryStore()                       // process-local
//	store, err := profile.OpenRedis(ctx, redisCfg)          // one hash per user
//	store, err := profile.OpenPostgres(ctx, pgCfg)          // one row per assignment
//	store, err := profile.OpenMongo(ctx, mongoCfg)          // one document per user
//
// Backend configs populate from the environment via caarlos0/env tags.
// Writes are last-write-wins; concurrent decisions for the same user
// may both save, which is the documented eventual-consistency property
// of sticky bucketing.
package profile
