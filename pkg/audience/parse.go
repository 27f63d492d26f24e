package audience

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	operatorAnd = "and"
	operatorOr  = "or"
	operatorNot = "not"
)

// ParseConditions decodes the datafile condition grammar into a typed
// tree. The grammar is a recursive JSON array whose first element names
// the operator, e.g.
//
//	["and", ["or", {"name": "plan", "match": "exact", "value": "gold"}]]
//
// An array without a leading operator string uses "or", matching the
// legacy datafile format. Some datafiles double-encode the whole tree
// as a JSON string; that layer is unwrapped transparently.
func ParseConditions(raw []byte) (Condition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	// Unwrap the string-encoded form.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, errors.Join(ErrMalformedConditions, err)
		}
		return ParseConditions([]byte(inner))
	}

	cond, err := parseNode(raw)
	if err != nil {
		return nil, err
	}
	return cond, nil
}

func parseNode(raw json.RawMessage) (Condition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.Join(ErrMalformedConditions, errors.New("empty condition node"))
	}
	switch raw[0] {
	case '[':
		return parseOperator(raw)
	case '{':
		return parseLeaf(raw)
	default:
		return nil, errors.Join(ErrMalformedConditions,
			fmt.Errorf("unexpected condition node %s", compact(raw)))
	}
}

func parseOperator(raw json.RawMessage) (Condition, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, errors.Join(ErrMalformedConditions, err)
	}
	if len(elems) == 0 {
		return nil, errors.Join(ErrMalformedConditions, errors.New("empty condition list"))
	}

	// Legacy lists carry no operator and mean "or".
	operator := operatorOr
	operands := elems
	var name string
	if err := json.Unmarshal(elems[0], &name); err == nil {
		switch name {
		case operatorAnd, operatorOr, operatorNot:
			operator = name
			operands = elems[1:]
		default:
			return nil, errors.Join(ErrMalformedConditions,
				fmt.Errorf("unknown condition operator %q", name))
		}
	}

	children := make([]Condition, 0, len(operands))
	for _, operand := range operands {
		child, err := parseNode(operand)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	switch operator {
	case operatorAnd:
		return And{Operands: children}, nil
	case operatorNot:
		if len(children) != 1 {
			return nil, errors.Join(ErrMalformedConditions,
				fmt.Errorf("not operator requires exactly one operand, got %d", len(children)))
		}
		return Not{Operand: children[0]}, nil
	default:
		return Or{Operands: children}, nil
	}
}

type rawLeaf struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Match MatchType       `json:"match"`
	Value json.RawMessage `json:"value"`
}

func parseLeaf(raw json.RawMessage) (Condition, error) {
	var leaf rawLeaf
	if err := json.Unmarshal(raw, &leaf); err != nil {
		return nil, errors.Join(ErrMalformedConditions, err)
	}
	if leaf.Name == "" {
		return nil, errors.Join(ErrMalformedConditions, errors.New("condition leaf without attribute name"))
	}
	if leaf.Type != "" && leaf.Type != "custom_attribute" {
		return nil, errors.Join(ErrMalformedConditions,
			fmt.Errorf("unsupported condition type %q", leaf.Type))
	}

	match := leaf.Match
	if match == "" {
		match = MatchExact
	}
	switch match {
	case MatchExact, MatchExists, MatchSubstring, MatchGreaterThan, MatchLessThan:
	default:
		return nil, errors.Join(ErrMalformedConditions,
			fmt.Errorf("unsupported match type %q", match))
	}

	expected, err := parseValue(leaf.Value)
	if err != nil {
		return nil, err
	}
	return Leaf{Attribute: leaf.Name, Match: match, Expected: expected}, nil
}

func parseValue(raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Value{}, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Value{}, errors.Join(ErrMalformedConditions, err)
	}
	switch typed := v.(type) {
	case string:
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case float64:
		return Number(typed), nil
	default:
		return Value{}, errors.Join(ErrMalformedConditions,
			fmt.Errorf("unsupported condition value %s", compact(raw)))
	}
}

func compact(raw []byte) string {
	if len(raw) > 64 {
		raw = raw[:64]
	}
	return string(raw)
}
