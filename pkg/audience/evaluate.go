package audience

import "strings"

// Result is the outcome of a three-valued (Kleene) evaluation. The zero
// value is Unknown so an uninitialized result never reads as a match.
type Result int8

const (
	Unknown Result = iota
	False
	True
)

func (r Result) String() string {
	switch r {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Evaluate walks a condition tree against the user's attributes. A nil
// condition evaluates to True (no restriction). Unknown must be carried
// through the walk, not collapsed to false early: And short-circuits
// only on False and Or only on True.
func Evaluate(c Condition, attrs Attributes) Result {
	if c == nil {
		return True
	}
	switch node := c.(type) {
	case And:
		return evaluateAnd(node.Operands, attrs)
	case Or:
		return evaluateOr(node.Operands, attrs)
	case Not:
		return negate(Evaluate(node.Operand, attrs))
	case Leaf:
		return evaluateLeaf(node, attrs)
	default:
		return Unknown
	}
}

func evaluateAnd(operands []Condition, attrs Attributes) Result {
	sawUnknown := false
	for _, op := range operands {
		switch Evaluate(op, attrs) {
		case False:
			return False
		case Unknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return Unknown
	}
	return True
}

func evaluateOr(operands []Condition, attrs Attributes) Result {
	sawUnknown := false
	for _, op := range operands {
		switch Evaluate(op, attrs) {
		case True:
			return True
		case Unknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return Unknown
	}
	return False
}

func negate(r Result) Result {
	switch r {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func evaluateLeaf(leaf Leaf, attrs Attributes) Result {
	actual, present := attrs[leaf.Attribute]
	if present && actual.Kind() == KindAbsent {
		present = false
	}

	// Exists is the only match type decidable without a value.
	if leaf.Match == MatchExists {
		return toResult(present)
	}
	if !present {
		return Unknown
	}

	switch leaf.Match {
	case MatchExact:
		return evaluateExact(leaf.Expected, actual)
	case MatchSubstring:
		sub, ok := leaf.Expected.Str()
		if !ok {
			return Unknown
		}
		s, ok := actual.Str()
		if !ok {
			return Unknown
		}
		return toResult(strings.Contains(s, sub))
	case MatchGreaterThan:
		return compareNumbers(leaf.Expected, actual, func(got, want float64) bool { return got > want })
	case MatchLessThan:
		return compareNumbers(leaf.Expected, actual, func(got, want float64) bool { return got < want })
	default:
		return Unknown
	}
}

// evaluateExact compares values of the same kind only; a kind mismatch
// is an unanswerable question, not a non-match.
func evaluateExact(expected, actual Value) Result {
	if expected.Kind() != actual.Kind() {
		return Unknown
	}
	switch expected.Kind() {
	case KindString:
		want, _ := expected.Str()
		got, _ := actual.Str()
		return toResult(got == want)
	case KindBool:
		want, _ := expected.Boolean()
		got, _ := actual.Boolean()
		return toResult(got == want)
	case KindNumber:
		want, _ := expected.Num()
		got, _ := actual.Num()
		return toResult(got == want)
	default:
		return Unknown
	}
}

func compareNumbers(expected, actual Value, cmp func(got, want float64) bool) Result {
	want, ok := expected.Num()
	if !ok {
		return Unknown
	}
	got, ok := actual.Num()
	if !ok {
		return Unknown
	}
	return toResult(cmp(got, want))
}

func toResult(b bool) Result {
	if b {
		return True
	}
	return False
}
