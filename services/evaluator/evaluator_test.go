package evaluator

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complianceos/models"
	"complianceos/services/datasource"
)

// memAdapter serves fixed rows for one logical table.
type memAdapter struct {
	rows []datasource.Row
}

func (a *memAdapter) OpenRows(ctx context.Context, table string) (datasource.RowIter, error) {
	return &memIter{rows: a.rows}, nil
}

func (a *memAdapter) RowCount(ctx context.Context, table string) (int64, error) {
	return int64(len(a.rows)), nil
}

func (a *memAdapter) Close() error { return nil }

type memIter struct {
	rows []datasource.Row
	pos  int
}

func (it *memIter) Next() (datasource.Row, error) {
	if it.pos >= len(it.rows) {
		return nil, io.EOF
	}
	row := it.rows[it.pos]
	it.pos++
	return row, nil
}

func (it *memIter) Close() error { return nil }

// TestEvaluate_CollectsCandidates tests that matching rows become candidates
// with their row snapshot as evidence
func TestEvaluate_CollectsCandidates(t *testing.T) {
	adapter := &memAdapter{rows: []datasource.Row{
		{"id": "1", "category": "travel"},
		{"id": "2", "category": "personal"},
		{"id": "3", "category": "personal"},
	}}
	rule := &models.Rule{
		ID:          7,
		TargetTable: "expenses",
		Predicate:   `{"column": "category", "operator": "equals", "value": "personal"}`,
	}

	result, err := Evaluate(context.Background(), rule, adapter)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.RowsScanned)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "2", result.Candidates[0].RecordID)
	assert.Equal(t, "3", result.Candidates[1].RecordID)
	assert.Equal(t, "personal", result.Candidates[0].Metadata["category"])
}

// TestEvaluate_MalformedPredicateFailsRule tests that a broken predicate is a
// rule-level error, reported before any rows are read
func TestEvaluate_MalformedPredicateFailsRule(t *testing.T) {
	adapter := &memAdapter{rows: []datasource.Row{{"id": "1"}}}
	rule := &models.Rule{ID: 3, TargetTable: "users", Predicate: `{"operator": "equals"}`}

	_, err := Evaluate(context.Background(), rule, adapter)
	assert.Error(t, err)
}

// TestEvaluate_BadRowSkipped tests that a row missing the predicate column is
// skipped while the rest of the table is still evaluated
func TestEvaluate_BadRowSkipped(t *testing.T) {
	adapter := &memAdapter{rows: []datasource.Row{
		{"id": "1", "amount": "2000"},
		{"id": "2"},
		{"id": "3", "amount": "1500"},
	}}
	rule := &models.Rule{
		ID:          5,
		TargetTable: "travel_bookings",
		Predicate:   `{"column": "amount", "operator": "greater_than", "value": 1000}`,
	}

	result, err := Evaluate(context.Background(), rule, adapter)
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.RowsScanned)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "1", result.Candidates[0].RecordID)
	assert.Equal(t, "3", result.Candidates[1].RecordID)
}

// TestEvaluate_PositionalRecordID tests the fallback record id for sources
// without an id-like column
func TestEvaluate_PositionalRecordID(t *testing.T) {
	adapter := &memAdapter{rows: []datasource.Row{
		{"name": "a"},
		{"name": "b"},
	}}
	rule := &models.Rule{
		ID:          9,
		TargetTable: "things",
		Predicate:   `{"column": "name", "operator": "present"}`,
	}

	result, err := Evaluate(context.Background(), rule, adapter)
	require.NoError(t, err)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "0", result.Candidates[0].RecordID)
	assert.Equal(t, "1", result.Candidates[1].RecordID)
}

// TestEncodeMetadata tests row snapshot serialization
func TestEncodeMetadata(t *testing.T) {
	out := EncodeMetadata(map[string]interface{}{"a": "x", "n": 2})
	assert.JSONEq(t, `{"a": "x", "n": 2}`, out)

	// Unserializable values degrade to strings instead of dropping evidence.
	out = EncodeMetadata(map[string]interface{}{"ch": make(chan int)})
	assert.Contains(t, out, `"ch"`)
}
