package audience

// MatchType selects the comparison performed by a Leaf condition. The
// string values mirror the datafile wire format.
type MatchType string

const (
	MatchExact       MatchType = "exact"
	MatchExists      MatchType = "exists"
	MatchSubstring   MatchType = "substring"
	MatchGreaterThan MatchType = "gt"
	MatchLessThan    MatchType = "lt"
)

// Condition is a node of a parsed boolean condition tree. The concrete
// types are And, Or, Not and Leaf; trees are built once at datafile
// parse time and never mutated afterwards.
type Condition interface {
	condition()
}

// And is true when every operand is true, false when any operand is
// false, and unknown otherwise.
type And struct {
	Operands []Condition
}

// Or is true when any operand is true, false when every operand is
// false, and unknown otherwise.
type Or struct {
	Operands []Condition
}

// Not inverts its operand; unknown stays unknown.
type Not struct {
	Operand Condition
}

// Leaf compares a single user attribute against an expected value.
type Leaf struct {
	Attribute string
	Match     MatchType
	Expected  Value
}

func (And) condition()  {}
func (Or) condition()   {}
func (Not) condition()  {}
func (Leaf) condition() {}
