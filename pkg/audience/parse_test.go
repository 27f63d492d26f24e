package audience_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/pkg/audience"
)

func TestParseConditions(t *testing.T) {
	t.Parallel()

	t.Run("OperatorTree", func(t *testing.T) {
		t.Parallel()
		raw := `["and",
			["or", {"name": "plan", "type": "custom_attribute", "match": "exact", "value": "gold"}],
			["not", {"name": "beta", "match": "exists"}]
		]`
		cond, err := audience.ParseConditions([]byte(raw))
		require.NoError(t, err)

		and, ok := cond.(audience.And)
		require.True(t, ok)
		require.Len(t, and.Operands, 2)

		or, ok := and.Operands[0].(audience.Or)
		require.True(t, ok)
		require.Len(t, or.Operands, 1)

		leaf, ok := or.Operands[0].(audience.Leaf)
		require.True(t, ok)
		assert.Equal(t, "plan", leaf.Attribute)
		assert.Equal(t, audience.MatchExact, leaf.Match)
		s, isStr := leaf.Expected.Str()
		assert.True(t, isStr)
		assert.Equal(t, "gold", s)

		not, ok := and.Operands[1].(audience.Not)
		require.True(t, ok)
		inner, ok := not.Operand.(audience.Leaf)
		require.True(t, ok)
		assert.Equal(t, audience.MatchExists, inner.Match)
	})

	t.Run("StringEncodedTree", func(t *testing.T) {
		t.Parallel()
		// Datafiles frequently double-encode the tree as a JSON string.
		raw := `"[\"or\", {\"name\": \"plan\", \"match\": \"exact\", \"value\": \"gold\"}]"`
		cond, err := audience.ParseConditions([]byte(raw))
		require.NoError(t, err)
		_, ok := cond.(audience.Or)
		assert.True(t, ok)
	})

	t.Run("ImplicitOr", func(t *testing.T) {
		t.Parallel()
		raw := `[{"name": "a", "match": "exists"}, {"name": "b", "match": "exists"}]`
		cond, err := audience.ParseConditions([]byte(raw))
		require.NoError(t, err)
		or, ok := cond.(audience.Or)
		require.True(t, ok)
		assert.Len(t, or.Operands, 2)
	})

	t.Run("DefaultMatchIsExact", func(t *testing.T) {
		t.Parallel()
		raw := `{"name": "plan", "value": "gold"}`
		cond, err := audience.ParseConditions([]byte(raw))
		require.NoError(t, err)
		leaf, ok := cond.(audience.Leaf)
		require.True(t, ok)
		assert.Equal(t, audience.MatchExact, leaf.Match)
	})

	t.Run("TypedValues", func(t *testing.T) {
		t.Parallel()
		cond, err := audience.ParseConditions([]byte(`{"name": "age", "match": "gt", "value": 21}`))
		require.NoError(t, err)
		leaf := cond.(audience.Leaf)
		n, ok := leaf.Expected.Num()
		require.True(t, ok)
		assert.Equal(t, 21.0, n)

		cond, err = audience.ParseConditions([]byte(`{"name": "beta", "match": "exact", "value": true}`))
		require.NoError(t, err)
		leaf = cond.(audience.Leaf)
		b, ok := leaf.Expected.Boolean()
		require.True(t, ok)
		assert.True(t, b)
	})

	t.Run("EmptyAndNull", func(t *testing.T) {
		t.Parallel()
		cond, err := audience.ParseConditions(nil)
		require.NoError(t, err)
		assert.Nil(t, cond)

		cond, err = audience.ParseConditions([]byte("null"))
		require.NoError(t, err)
		assert.Nil(t, cond)
	})

	t.Run("Malformed", func(t *testing.T) {
		t.Parallel()
		cases := map[string]string{
			"UnknownOperator": `["xor", {"name": "a", "match": "exists"}]`,
			"UnknownMatch":    `{"name": "a", "match": "regex", "value": "x"}`,
			"UnknownType":     `{"name": "a", "type": "device", "match": "exists"}`,
			"MissingName":     `{"match": "exists"}`,
			"NotArity":        `["not", {"name": "a", "match": "exists"}, {"name": "b", "match": "exists"}]`,
			"ObjectValue":     `{"name": "a", "match": "exact", "value": {"nested": 1}}`,
			"EmptyList":       `[]`,
			"BadJSON":         `["and",`,
		}
		for name, raw := range cases {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				_, err := audience.ParseConditions([]byte(raw))
				require.Error(t, err)
				assert.ErrorIs(t, err, audience.ErrMalformedConditions)
			})
		}
	})
}
