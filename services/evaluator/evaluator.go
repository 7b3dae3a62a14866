package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"complianceos/models"
	"complianceos/pkg/logger"
	"complianceos/services/datasource"
)

// Candidate is a row that violated a rule, carrying the identifying record id
// and the full row snapshot as evidence.
type Candidate struct {
	RecordID string
	Metadata map[string]interface{}
}

// Result summarizes one rule evaluation.
type Result struct {
	Candidates  []Candidate
	RowsScanned int64
}

// Evaluate applies the rule's predicate to every row of its target table.
// A predicate parse error or a row-level evaluation error fails only this
// rule, never the scan; source errors propagate so the orchestrator can
// distinguish systemic failure from a single malformed rule.
func Evaluate(ctx context.Context, rule *models.Rule, adapter datasource.Adapter) (*Result, error) {
	pred, err := ParsePredicate(rule.Predicate)
	if err != nil {
		return nil, fmt.Errorf("rule %d predicate: %w", rule.ID, err)
	}

	iter, err := adapter.OpenRows(ctx, rule.TargetTable)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	result := &Result{}
	idx := int64(0)
	for {
		row, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		result.RowsScanned++

		matched, err := pred.Matches(row)
		if err != nil {
			// One bad row must not hide violations in the rest of the table.
			logger.Warnf("Rule %d: row %d evaluation error: %v", rule.ID, idx, err)
			idx++
			continue
		}
		if matched {
			result.Candidates = append(result.Candidates, Candidate{
				RecordID: recordID(row, idx),
				Metadata: row,
			})
		}
		idx++
	}

	logger.Debugf("Rule %d evaluated: %d rows, %d candidates",
		rule.ID, result.RowsScanned, len(result.Candidates))
	return result, nil
}

// recordID picks the row's identifying value: an id-like column when the
// source declares one, otherwise the positional index.
func recordID(row map[string]interface{}, idx int64) string {
	for _, key := range []string{"id", "row_id", "record_id"} {
		if v, ok := row[key]; ok && v != nil {
			return stringify(v)
		}
	}
	return strconv.FormatInt(idx, 10)
}

// EncodeMetadata serializes a row snapshot for violation storage.
// Unserializable values degrade to their string form rather than dropping
// the evidence.
func EncodeMetadata(metadata map[string]interface{}) string {
	b, err := json.Marshal(metadata)
	if err != nil {
		safe := make(map[string]string, len(metadata))
		for k, v := range metadata {
			safe[k] = stringify(v)
		}
		b, _ = json.Marshal(safe)
	}
	return string(b)
}
