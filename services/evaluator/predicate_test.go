package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePredicate_Validation tests predicate JSON validation errors
func TestParsePredicate_Validation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"malformed json", `{"column": `},
		{"missing column", `{"operator": "equals", "value": "x"}`},
		{"missing operator", `{"column": "a", "value": "x"}`},
		{"unknown operator", `{"column": "a", "operator": "between", "value": "x"}`},
		{"equals without value", `{"column": "a", "operator": "equals"}`},
		{"matches non-string pattern", `{"column": "a", "operator": "matches", "value": 5}`},
		{"matches invalid regexp", `{"column": "a", "operator": "matches", "value": "["}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePredicate(tc.raw)
			assert.Error(t, err)
		})
	}
}

// TestParsePredicate_ValidOperators tests that each operator parses
func TestParsePredicate_ValidOperators(t *testing.T) {
	valid := []string{
		`{"column": "a", "operator": "equals", "value": "x"}`,
		`{"column": "a", "operator": "not_equals", "value": "x"}`,
		`{"column": "a", "operator": "greater_than", "value": 10}`,
		`{"column": "a", "operator": "less_than", "value": 10}`,
		`{"column": "a", "operator": "matches", "value": "^ab.*c$"}`,
		`{"column": "a", "operator": "in", "value": ["x", "y"]}`,
		`{"column": "a", "operator": "not_in", "value": ["x"]}`,
		`{"column": "a", "operator": "absent"}`,
		`{"column": "a", "operator": "present"}`,
	}
	for _, raw := range valid {
		p, err := ParsePredicate(raw)
		require.NoError(t, err, "predicate %s", raw)
		assert.Equal(t, "a", p.Column)
	}
}

// TestMatches_Comparisons tests operator semantics against row values
func TestMatches_Comparisons(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		row  map[string]interface{}
		want bool
	}{
		{"equals hit", `{"column": "category", "operator": "equals", "value": "personal"}`,
			map[string]interface{}{"category": "personal"}, true},
		{"equals miss", `{"column": "category", "operator": "equals", "value": "personal"}`,
			map[string]interface{}{"category": "travel"}, false},
		{"not_equals hit", `{"column": "status", "operator": "not_equals", "value": "ok"}`,
			map[string]interface{}{"status": "late"}, true},
		{"greater_than numeric", `{"column": "amount", "operator": "greater_than", "value": 1000}`,
			map[string]interface{}{"amount": 1500.0}, true},
		{"greater_than numeric string", `{"column": "amount", "operator": "greater_than", "value": 1000}`,
			map[string]interface{}{"amount": "1500"}, true},
		{"greater_than boundary", `{"column": "amount", "operator": "greater_than", "value": 1000}`,
			map[string]interface{}{"amount": "1000"}, false},
		{"greater_than date string", `{"column": "created_date", "operator": "greater_than", "value": "2022-01-01"}`,
			map[string]interface{}{"created_date": "2023-05-10"}, true},
		{"less_than", `{"column": "score", "operator": "less_than", "value": 50}`,
			map[string]interface{}{"score": 49}, true},
		{"matches hit", `{"column": "bank_name", "operator": "matches", "value": "^Switzerland"}`,
			map[string]interface{}{"bank_name": "Switzerland National"}, true},
		{"matches miss", `{"column": "bank_name", "operator": "matches", "value": "^Switzerland"}`,
			map[string]interface{}{"bank_name": "Bank of Switzerland"}, false},
		{"in hit", `{"column": "region", "operator": "in", "value": ["eu", "us"]}`,
			map[string]interface{}{"region": "eu"}, true},
		{"in numeric coercion", `{"column": "code", "operator": "in", "value": [1, 2]}`,
			map[string]interface{}{"code": "2"}, true},
		{"not_in hit", `{"column": "region", "operator": "not_in", "value": ["eu"]}`,
			map[string]interface{}{"region": "apac"}, true},
		{"absent missing column", `{"column": "vendor_id", "operator": "absent"}`,
			map[string]interface{}{"other": 1}, true},
		{"absent nil value", `{"column": "vendor_id", "operator": "absent"}`,
			map[string]interface{}{"vendor_id": nil}, true},
		{"absent empty string", `{"column": "vendor_id", "operator": "absent"}`,
			map[string]interface{}{"vendor_id": ""}, true},
		{"absent populated", `{"column": "vendor_id", "operator": "absent"}`,
			map[string]interface{}{"vendor_id": "V-17"}, false},
		{"present populated", `{"column": "vendor_id", "operator": "present"}`,
			map[string]interface{}{"vendor_id": "V-17"}, true},
		{"present empty string", `{"column": "vendor_id", "operator": "present"}`,
			map[string]interface{}{"vendor_id": ""}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := ParsePredicate(tc.raw)
			require.NoError(t, err)
			got, err := p.Matches(tc.row)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// TestMatches_MissingColumnIsError tests that comparison operators fail on
// rows lacking the column instead of silently not matching
func TestMatches_MissingColumnIsError(t *testing.T) {
	p, err := ParsePredicate(`{"column": "amount", "operator": "greater_than", "value": 10}`)
	require.NoError(t, err)

	_, err = p.Matches(map[string]interface{}{"other": 1})
	assert.Error(t, err)
}
