// Package evaluator applies a rule's structured predicate to the rows of its
// target table, yielding violation candidates.
package evaluator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Predicate operators. Each judges a single column value; rows are evaluated
// independently with no cross-row aggregation.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpMatches     = "matches"
	OpIn          = "in"
	OpNotIn       = "not_in"
	OpAbsent      = "absent"
	OpPresent     = "present"
)

// Predicate is the structured condition stored on a rule:
// a column, an operator, and an operand value.
type Predicate struct {
	Column   string      `json:"column"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`

	re *regexp.Regexp
}

// ParsePredicate decodes and validates a rule's predicate JSON.
func ParsePredicate(raw string) (*Predicate, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty predicate")
	}
	var p Predicate
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("malformed predicate: %v", err)
	}
	if p.Column == "" {
		return nil, fmt.Errorf("predicate missing column")
	}

	switch p.Operator {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpIn, OpNotIn:
		if p.Value == nil {
			return nil, fmt.Errorf("operator %s requires a value", p.Operator)
		}
	case OpMatches:
		pattern, ok := p.Value.(string)
		if !ok {
			return nil, fmt.Errorf("operator matches requires a string pattern")
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid match pattern: %v", err)
		}
		p.re = re
	case OpAbsent, OpPresent:
		// No operand.
	case "":
		return nil, fmt.Errorf("predicate missing operator")
	default:
		return nil, fmt.Errorf("unknown predicate operator: %s", p.Operator)
	}

	return &p, nil
}

// Matches reports whether the row violates the predicate's condition.
// The column value's presence is handled first: absent/present operators
// consume it, every other operator treats a missing column as an evaluation
// error so the orchestrator can record a rule-level failure.
func (p *Predicate) Matches(row map[string]interface{}) (bool, error) {
	val, ok := row[p.Column]

	switch p.Operator {
	case OpAbsent:
		return !ok || val == nil || stringify(val) == "", nil
	case OpPresent:
		return ok && val != nil && stringify(val) != "", nil
	}

	if !ok {
		return false, fmt.Errorf("column %q not present in row", p.Column)
	}

	switch p.Operator {
	case OpEquals:
		return compareValues(val, p.Value) == 0, nil
	case OpNotEquals:
		return compareValues(val, p.Value) != 0, nil
	case OpGreaterThan:
		return compareValues(val, p.Value) > 0, nil
	case OpLessThan:
		return compareValues(val, p.Value) < 0, nil
	case OpMatches:
		return p.re.MatchString(stringify(val)), nil
	case OpIn:
		return inSet(val, p.Value), nil
	case OpNotIn:
		return !inSet(val, p.Value), nil
	}
	return false, fmt.Errorf("unknown predicate operator: %s", p.Operator)
}

// compareValues orders two scalars numerically when both parse as numbers,
// falling back to string comparison otherwise. Sources hand back a mix of
// native numerics and text, so comparison has to be tolerant of both.
func compareValues(a, b interface{}) int {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(stringify(a), stringify(b))
}

func inSet(val, set interface{}) bool {
	items, ok := set.([]interface{})
	if !ok {
		return compareValues(val, set) == 0
	}
	for _, item := range items {
		if compareValues(val, item) == 0 {
			return true
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
