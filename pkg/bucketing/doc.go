// Package bucketing implements deterministic hash-based assignment of
// users to slots in the traffic allocation space [0, 10000).
//
// The bucket value of a user for an entity (experiment, group or
// rollout rule) is a pure function of the bucketing id and the entity
// id, computed with murmur3 so that every SDK implementation in the
// family buckets the same user identically for the same configuration.
//
//	value := bucketing.Value("user-42", experiment.ID)
//	variationID, ok := bucketing.Allocate(value, experiment.Traffic)
//
// Allocation tables are sorted ascending by end of range; a value past
// the last entry means the user falls into unallocated traffic.
package bucketing
