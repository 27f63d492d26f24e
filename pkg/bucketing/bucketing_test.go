package bucketing_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flagkit/flagkit/pkg/bucketing"
)

// These vectors are shared across the SDK family; a failure here means
// users would be rebucketed relative to every other implementation.
func TestValueCrossSDKVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bucketingID string
		entityID    string
		want        int
	}{
		{"ppid1", "1886780721", 5254},
		{"ppid2", "1886780721", 4299},
		{"ppid2", "1886780722", 2434},
		{"ppid3", "1886780721", 5439},
		{"user-a", "exp-1001", 3235},
		{"user-b", "exp-1001", 557},
		{"user-c", "exp-1001", 9411},
		{"", "exp-1001", 9909},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.bucketingID, tt.entityID), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, bucketing.Value(tt.bucketingID, tt.entityID))
		})
	}
}

func TestValueRangeAndDeterminism(t *testing.T) {
	t.Parallel()

	for i := range 1000 {
		id := fmt.Sprintf("user-%d", i)
		v := bucketing.Value(id, "entity")
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, bucketing.MaxBucketValue)
		assert.Equal(t, v, bucketing.Value(id, "entity"))
	}
}

func TestValueDependsOnBothInputs(t *testing.T) {
	t.Parallel()

	// Same user, different entities must be independent draws.
	assert.NotEqual(t,
		bucketing.Value("user-a", "exp-1001"),
		bucketing.Value("user-a", "exp-1002"))
	assert.NotEqual(t,
		bucketing.Value("user-a", "exp-1001"),
		bucketing.Value("user-b", "exp-1001"))
}

func TestAllocate(t *testing.T) {
	t.Parallel()

	ranges := []bucketing.Range{
		{EntityID: "var-1", EndOfRange: 3000},
		{EntityID: "var-2", EndOfRange: 6000},
		{EntityID: "var-3", EndOfRange: 8000},
	}

	tests := []struct {
		name   string
		value  int
		entity string
		ok     bool
	}{
		{"FirstRangeStart", 0, "var-1", true},
		{"FirstRangeEnd", 2999, "var-1", true},
		{"BoundaryIsExclusive", 3000, "var-2", true},
		{"MiddleRange", 5999, "var-2", true},
		{"LastRange", 7999, "var-3", true},
		{"UnallocatedRemainder", 8000, "", false},
		{"FarBeyondTable", 9999, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entity, ok := bucketing.Allocate(tt.value, ranges)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.entity, entity)
		})
	}

	t.Run("EmptyTable", func(t *testing.T) {
		t.Parallel()
		entity, ok := bucketing.Allocate(0, nil)
		assert.False(t, ok)
		assert.Empty(t, entity)
	})
}
