// Package datasource gives the scan engine uniform read-only row access over
// heterogeneous backends: postgres, mysql, sqlite and uploaded CSV tables.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"complianceos/models"
)

// Sentinel errors for adapter failures. The orchestrator dispatches on these
// with errors.Is to decide between rule-level skips and run-level failure.
var (
	// ErrSourceUnavailable indicates the locator cannot be reached or a source
	// operation timed out.
	ErrSourceUnavailable = errors.New("data source unavailable")
	// ErrSchemaMismatch indicates the target table does not exist in the source.
	ErrSchemaMismatch = errors.New("target table not found in data source")
)

// Row is a single record keyed by column name.
type Row map[string]interface{}

// RowIter streams rows from a source table. Iteration is finite; a fresh
// iterator is opened per rule evaluation, so no cursor state is shared
// between rules.
type RowIter interface {
	// Next returns the next row, or io.EOF when the sequence is exhausted.
	Next() (Row, error)
	Close() error
}

// Adapter provides read-only row access to one data source.
type Adapter interface {
	// OpenRows opens a fresh row sequence over the resolved target table.
	OpenRows(ctx context.Context, table string) (RowIter, error)
	// RowCount returns the number of rows in the resolved target table,
	// used for scan progress denominators.
	RowCount(ctx context.Context, table string) (int64, error)
	Close() error
}

// Factory opens an adapter for a data source record. The scan orchestrator
// takes a Factory so tests can substitute in-memory sources.
type Factory func(ds *models.DataSource) (Adapter, error)

// Open selects and opens the adapter implementation for the source's kind.
func Open(ds *models.DataSource) (Adapter, error) {
	switch ds.Kind {
	case models.SourceKindPostgres, models.SourceKindMySQL, models.SourceKindSQLite:
		return openSQLAdapter(ds.Kind, ds.Locator)
	case models.SourceKindCSV:
		return openCSVAdapter(ds.Locator)
	default:
		return nil, fmt.Errorf("unsupported data source kind: %s", ds.Kind)
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent rejects table names that cannot be safely interpolated as SQL
// identifiers. Rule target tables come from the extractor, not from users,
// but the check holds the line either way.
func validIdent(name string) bool {
	return identPattern.MatchString(name)
}
