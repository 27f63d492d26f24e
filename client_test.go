package flagkit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit"
	"github.com/flagkit/flagkit/pkg/datafile"
	"github.com/flagkit/flagkit/pkg/notification"
	"github.com/flagkit/flagkit/pkg/profile"
)

// Buckets referenced below, fixed by the murmur3 contract:
//
//	entity exp-2001:      user-a 7666, user-d 2032
//	entity exp-2002:      gold-user 7407
//	entity rule-1:        gold-user 4381
//	entity rule-everyone: no-attr-user 5029, silver-user 9539
const fixture = `{
	"version": "4",
	"revision": "42",
	"projectId": "proj-1",
	"accountId": "acct-1",
	"audiences": [
		{
			"id": "aud-gold",
			"name": "Gold plan",
			"conditions": ["and", {"name": "plan", "type": "custom_attribute", "match": "exact", "value": "gold"}]
		}
	],
	"experiments": [
		{
			"id": "exp-2001",
			"key": "exp1",
			"status": "Running",
			"variations": [
				{"id": "var-1", "key": "A"},
				{"id": "var-2", "key": "B"}
			],
			"trafficAllocation": [
				{"entityId": "var-1", "endOfRange": 5000},
				{"entityId": "var-2", "endOfRange": 10000}
			]
		},
		{
			"id": "exp-2002",
			"key": "exp_audience",
			"status": "Running",
			"audienceIds": ["aud-gold"],
			"variations": [
				{
					"id": "var-g",
					"key": "on",
					"featureEnabled": true,
					"variables": [
						{"id": "variable-1", "value": "25"},
						{"id": "variable-2", "value": "0.75"},
						{"id": "variable-3", "value": "true"}
					]
				},
				{"id": "var-goff", "key": "off", "featureEnabled": false}
			],
			"trafficAllocation": [{"entityId": "var-g", "endOfRange": 10000}]
		}
	],
	"rollouts": [
		{
			"id": "rollout-1",
			"experiments": [
				{
					"id": "rule-1",
					"key": "rule_gold",
					"status": "Running",
					"audienceIds": ["aud-gold"],
					"variations": [{"id": "var-r1", "key": "rule_one", "featureEnabled": true}],
					"trafficAllocation": [{"entityId": "var-r1", "endOfRange": 5000}]
				},
				{
					"id": "rule-everyone",
					"key": "rule_everyone",
					"status": "Running",
					"variations": [{"id": "var-re", "key": "everyone", "featureEnabled": true}],
					"trafficAllocation": [{"entityId": "var-re", "endOfRange": 8000}]
				}
			]
		}
	],
	"featureFlags": [
		{
			"id": "flag-1",
			"key": "checkout",
			"rolloutId": "rollout-1",
			"experimentIds": ["exp-2002"],
			"variables": [
				{"id": "variable-1", "key": "discount", "type": "integer", "defaultValue": "10"},
				{"id": "variable-2", "key": "ratio", "type": "double", "defaultValue": "0.5"},
				{"id": "variable-3", "key": "beta", "type": "boolean", "defaultValue": "false"},
				{"id": "variable-4", "key": "headline", "type": "string", "defaultValue": "Buy now"},
				{"id": "variable-5", "key": "broken_ratio", "type": "double", "defaultValue": "abc"}
			]
		},
		{"id": "flag-2", "key": "promo", "rolloutId": "rollout-1"},
		{"id": "flag-3", "key": "orphan"}
	]
}`

var (
	goldUser   = flagkit.User{ID: "gold-user", Attributes: map[string]any{"plan": "gold"}}
	silverUser = flagkit.User{ID: "silver-user", Attributes: map[string]any{"plan": "silver"}}
	noAttrUser = flagkit.User{ID: "no-attr-user"}
)

func newClient(t *testing.T, opts ...flagkit.Option) *flagkit.Client {
	t.Helper()
	client, err := flagkit.New([]byte(fixture), opts...)
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("EmptyPayload", func(t *testing.T) {
		t.Parallel()
		_, err := flagkit.New(nil)
		assert.ErrorIs(t, err, flagkit.ErrEmptyDatafile)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		t.Parallel()
		_, err := flagkit.New([]byte(`{"version":`))
		assert.ErrorIs(t, err, datafile.ErrMalformedDatafile)
	})

	t.Run("SnapshotExposesMetadata", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		assert.Equal(t, "42", client.Snapshot().Revision())
		assert.Equal(t, "proj-1", client.Snapshot().ProjectID())
	})
}

func TestExperimentVariation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newClient(t)

	t.Run("BucketedUser", func(t *testing.T) {
		t.Parallel()
		key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"}) // bucket 2032
		require.NoError(t, err)
		assert.Equal(t, "A", key)

		key, err = client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-a"}) // bucket 7666
		require.NoError(t, err)
		assert.Equal(t, "B", key)
	})

	t.Run("ExcludedUserGetsEmptyKey", func(t *testing.T) {
		t.Parallel()
		key, err := client.ExperimentVariation(ctx, "exp_audience", silverUser)
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("UnknownExperimentGetsEmptyKey", func(t *testing.T) {
		t.Parallel()
		key, err := client.ExperimentVariation(ctx, "nope", flagkit.User{ID: "user-a"})
		require.NoError(t, err)
		assert.Empty(t, key)
	})
}

func TestFeatures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newClient(t)

	t.Run("EnabledViaFeatureTest", func(t *testing.T) {
		t.Parallel()
		on, err := client.IsFeatureEnabled(ctx, "checkout", goldUser)
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("EnabledViaRollout", func(t *testing.T) {
		t.Parallel()
		on, err := client.IsFeatureEnabled(ctx, "promo", noAttrUser) // rule-everyone bucket 5029
		require.NoError(t, err)
		assert.True(t, on)
	})

	t.Run("ExcludedEverywhere", func(t *testing.T) {
		t.Parallel()
		on, err := client.IsFeatureEnabled(ctx, "promo", silverUser) // rule-everyone bucket 9539
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("UnknownFeatureIsOff", func(t *testing.T) {
		t.Parallel()
		on, err := client.IsFeatureEnabled(ctx, "nope", goldUser)
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("EnabledFeaturesInDeclaredOrder", func(t *testing.T) {
		t.Parallel()
		keys, err := client.EnabledFeatures(ctx, noAttrUser)
		require.NoError(t, err)
		assert.Equal(t, []string{"checkout", "promo"}, keys)

		keys, err = client.EnabledFeatures(ctx, silverUser)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestFeatureVariables(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := newClient(t)

	t.Run("VariationOverride", func(t *testing.T) {
		t.Parallel()
		discount, err := client.FeatureVariableInt(ctx, "checkout", "discount", goldUser)
		require.NoError(t, err)
		assert.Equal(t, 25, discount)

		ratio, err := client.FeatureVariableFloat(ctx, "checkout", "ratio", goldUser)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, ratio, 1e-9)

		beta, err := client.FeatureVariableBool(ctx, "checkout", "beta", goldUser)
		require.NoError(t, err)
		assert.True(t, beta)
	})

	t.Run("DefaultWhenVariationHasNoOverride", func(t *testing.T) {
		t.Parallel()
		headline, err := client.FeatureVariableString(ctx, "checkout", "headline", goldUser)
		require.NoError(t, err)
		assert.Equal(t, "Buy now", headline)
	})

	t.Run("DefaultWhenUserExcluded", func(t *testing.T) {
		t.Parallel()
		discount, err := client.FeatureVariableInt(ctx, "checkout", "discount", silverUser)
		require.NoError(t, err)
		assert.Equal(t, 10, discount)
	})

	t.Run("UnknownFeature", func(t *testing.T) {
		t.Parallel()
		_, err := client.FeatureVariableInt(ctx, "nope", "discount", goldUser)
		assert.ErrorIs(t, err, flagkit.ErrFeatureNotFound)
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		t.Parallel()
		_, err := client.FeatureVariableInt(ctx, "checkout", "nope", goldUser)
		assert.ErrorIs(t, err, flagkit.ErrVariableNotFound)
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		t.Parallel()
		_, err := client.FeatureVariableString(ctx, "checkout", "discount", goldUser)
		assert.ErrorIs(t, err, flagkit.ErrVariableTypeMismatch)
	})

	t.Run("UnparseableValue", func(t *testing.T) {
		t.Parallel()
		_, err := client.FeatureVariableFloat(ctx, "checkout", "broken_ratio", silverUser)
		assert.ErrorIs(t, err, flagkit.ErrInvalidVariableValue)
	})
}

func TestForcedVariations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("SetAndRemove", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		require.NoError(t, client.SetForcedVariation("exp1", "user-d", "B"))

		forced, ok := client.ForcedVariation("exp1", "user-d")
		require.True(t, ok)
		assert.Equal(t, "B", forced)

		key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		assert.Equal(t, "B", key) // bucketing would say A

		client.RemoveForcedVariation("exp1", "user-d")
		_, ok = client.ForcedVariation("exp1", "user-d")
		assert.False(t, ok)

		key, err = client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		assert.Equal(t, "A", key)
	})

	t.Run("ValidatesExperimentKey", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		err := client.SetForcedVariation("nope", "user-d", "B")
		assert.ErrorIs(t, err, flagkit.ErrExperimentNotFound)
	})

	t.Run("ValidatesVariationKey", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		err := client.SetForcedVariation("exp1", "user-d", "nope")
		assert.ErrorIs(t, err, flagkit.ErrVariationNotFound)
	})
}

func TestDecisionListeners(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ExperimentEvents", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)

		var events []notification.DecisionEvent
		client.OnDecision(func(e notification.DecisionEvent) { events = append(events, e) })

		_, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		_, err = client.ExperimentVariation(ctx, "exp_audience", silverUser)
		require.NoError(t, err)

		require.Len(t, events, 2)
		assert.Equal(t, notification.DecisionTypeExperiment, events[0].Type)
		assert.Equal(t, "exp1", events[0].Key)
		assert.Equal(t, "user-d", events[0].UserID)
		assert.Equal(t, "A", events[0].VariationKey)
		assert.Empty(t, events[1].VariationKey) // excluded user
	})

	t.Run("FeatureEvents", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)

		var events []notification.DecisionEvent
		client.OnDecision(func(e notification.DecisionEvent) { events = append(events, e) })

		_, err := client.IsFeatureEnabled(ctx, "checkout", goldUser)
		require.NoError(t, err)

		require.Len(t, events, 1)
		assert.Equal(t, notification.DecisionTypeFeature, events[0].Type)
		assert.Equal(t, "checkout", events[0].Key)
		assert.True(t, events[0].Enabled)
		assert.Equal(t, "gold", events[0].Attributes["plan"])
	})

	t.Run("RemoveListener", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)

		var calls int
		id := client.OnDecision(func(notification.DecisionEvent) { calls++ })

		_, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		require.True(t, client.RemoveListener(id))
		_, err = client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
	})
}

func TestUpdateDatafile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("AtomicSwap", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		require.Equal(t, "42", client.Snapshot().Revision())

		updated := `{"version": "4", "revision": "43", "experiments": [
			{"id": "exp-2001", "key": "exp1", "status": "Paused",
			 "variations": [{"id": "var-1", "key": "A"}],
			 "trafficAllocation": [{"entityId": "var-1", "endOfRange": 10000}]}
		]}`
		require.NoError(t, client.UpdateDatafile([]byte(updated)))
		assert.Equal(t, "43", client.Snapshot().Revision())

		// The paused revision is now live.
		key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("FailedUpdateKeepsOldRevision", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		err := client.UpdateDatafile([]byte(`not a datafile`))
		require.ErrorIs(t, err, datafile.ErrMalformedDatafile)
		assert.Equal(t, "42", client.Snapshot().Revision())

		key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		assert.Equal(t, "A", key)
	})
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "datafile.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	client, err := flagkit.NewFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "42", client.Snapshot().Revision())

	key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
	require.NoError(t, err)
	assert.Equal(t, "A", key)
}

func TestNewFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadsFromEnvironment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "datafile.json")
		require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

		t.Setenv("FLAGKIT_DATAFILE_PATH", path)
		t.Setenv("FLAGKIT_LOG_LEVEL", "error")
		t.Setenv("FLAGKIT_LOG_FORMAT", "text")

		client, err := flagkit.NewFromEnv()
		require.NoError(t, err)

		key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
		require.NoError(t, err)
		assert.Equal(t, "A", key)
	})

	t.Run("MissingDatafilePath", func(t *testing.T) {
		t.Setenv("FLAGKIT_DATAFILE_PATH", "")
		_, err := flagkit.NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "datafile.json")
		require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

		t.Setenv("FLAGKIT_DATAFILE_PATH", path)
		t.Setenv("FLAGKIT_LOG_LEVEL", "loud")

		_, err := flagkit.NewFromEnv()
		assert.ErrorIs(t, err, flagkit.ErrInvalidConfig)
	})
}

func TestStickyAcrossRevisions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := profile.NewMemoryStore()
	client := newClient(t, flagkit.WithProfileStore(store))

	// First decision persists the assignment.
	key, err := client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
	require.NoError(t, err)
	require.Equal(t, "A", key)

	// A new revision flips the allocation so fresh bucketing would now
	// say B; the stored assignment must keep the user on A.
	updated := `{"version": "4", "revision": "43", "experiments": [
		{"id": "exp-2001", "key": "exp1", "status": "Running",
		 "variations": [{"id": "var-1", "key": "A"}, {"id": "var-2", "key": "B"}],
		 "trafficAllocation": [{"entityId": "var-2", "endOfRange": 10000}]}
	]}`
	require.NoError(t, client.UpdateDatafile([]byte(updated)))

	key, err = client.ExperimentVariation(ctx, "exp1", flagkit.User{ID: "user-d"})
	require.NoError(t, err)
	assert.Equal(t, "A", key)
}
