package bucketing

import (
	"github.com/spaolacci/murmur3"
)

const (
	// MaxBucketValue is the exclusive upper bound of the bucket space.
	// Traffic allocation tables partition [0, MaxBucketValue).
	MaxBucketValue = 10000

	// hashSeed is fixed across the whole SDK family; changing it would
	// silently rebucket every user.
	hashSeed = 1

	maxHashValue = float64(1 << 32)
)

// Range is one entry of a sorted traffic allocation table. EntityID is
// a variation id when the table belongs to an experiment or rollout
// rule, and an experiment id when it belongs to a mutual exclusion
// group. Ranges are half-open and cumulative: an entry claims
// [previous end, EndOfRange).
type Range struct {
	EntityID   string
	EndOfRange int
}

// Value maps a (bucketing id, entity id) pair onto [0, MaxBucketValue).
// The result must be bit-exact across every SDK implementation: it is
// the low 32 bits of murmur3 (x86, 32-bit) over the concatenated key,
// scaled by hash/2^32. Do not substitute another hash or reorder the
// arithmetic.
func Value(bucketingID, entityID string) int {
	hash := murmur3.Sum32WithSeed([]byte(bucketingID+entityID), hashSeed)
	ratio := float64(hash) / maxHashValue
	return int(ratio * MaxBucketValue)
}

// Allocate resolves a bucket value against a sorted allocation table,
// returning the entity id of the first range whose end exceeds the
// value. A value beyond the last range falls into the unallocated
// remainder and returns no entity.
func Allocate(value int, ranges []Range) (string, bool) {
	for _, r := range ranges {
		if value < r.EndOfRange {
			return r.EntityID, true
		}
	}
	return "", false
}
