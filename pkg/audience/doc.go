// Package audience evaluates boolean condition trees over typed user
// attributes using three-valued (Kleene) logic.
//
// Conditions arrive in the datafile as a recursive JSON grammar and are
// parsed exactly once, at datafile construction, into a tagged tree of
// And, Or, Not and Leaf nodes. Evaluation never touches raw JSON.
//
// # Three-valued logic
//
// A leaf that cannot be answered — the attribute is missing, or its type
// does not match the comparison — evaluates to Unknown rather than
// false. Unknown propagates through the operators:
//
//	And: False if any operand is False, else Unknown if any is Unknown
//	Or:  True if any operand is True, else Unknown if any is Unknown
//	Not: Unknown stays Unknown
//
// Callers typically treat a top-level Unknown as "not matched", but the
// distinction matters during the walk: Or([Unknown, True]) must be True.
//
// # Usage
//
//	cond, err := audience.ParseConditions(raw)
//	if err != nil {
//		// malformed datafile
//	}
//
//	attrs := audience.AttributesOf(map[string]any{
//		"plan":     "gold",
//		"age":      42,
//		"internal": true,
//	})
//	if audience.Evaluate(cond, attrs) == audience.True {
//		// user is in the audience
//	}
//
// Attribute values form a closed domain of string, boolean and number.
// There is no coercion between kinds: comparing the string "42" against
// the number 42 yields Unknown.
package audience
