package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sqle "github.com/dolthub/go-mysql-server"
	"github.com/dolthub/go-mysql-server/memory"
	"github.com/dolthub/go-mysql-server/sql"
	"github.com/dolthub/go-mysql-server/sql/types"

	"complianceos/pkg/logger"
)

// csvAdapter serves an uploaded CSV file through an in-memory MySQL-compatible
// engine. One upload is one table; its name derives from the file name at
// ingestion time, and every logical target table a rule names resolves to it.
type csvAdapter struct {
	engine    *sqle.Engine
	provider  *memory.DbProvider
	tableName string
	rowCount  int64
}

const csvDatabaseName = "scan"

func openCSVAdapter(locator string) (Adapter, error) {
	f, err := os.Open(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: open csv %s: %v", ErrSourceUnavailable, locator, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", ErrSourceUnavailable, err)
	}

	tableName := csvTableName(locator)
	columns := normalizeColumns(header)

	// CSV rows carry no declared primary key; synthesize a positional id
	// column unless the file already has one.
	hasID := false
	for _, col := range columns {
		if col == "id" {
			hasID = true
			break
		}
	}

	schemaCols := sql.Schema{}
	if !hasID {
		schemaCols = append(schemaCols, &sql.Column{
			Name: "id", Type: types.Text, Source: tableName, Nullable: false, PrimaryKey: true,
		})
	}
	for _, col := range columns {
		schemaCols = append(schemaCols, &sql.Column{
			Name: col, Type: types.Text, Source: tableName, Nullable: col != "id", PrimaryKey: col == "id",
		})
	}

	db := memory.NewDatabase(csvDatabaseName)
	provider := memory.NewDBProvider(db)
	engine := sqle.NewDefault(provider)

	table := memory.NewTable(db, tableName, sql.NewPrimaryKeySchema(schemaCols), db.GetForeignKeyCollection())
	db.AddTable(tableName, table)

	a := &csvAdapter{
		engine:    engine,
		provider:  provider,
		tableName: tableName,
	}

	insertCols := make([]string, 0, len(schemaCols))
	for _, c := range schemaCols {
		insertCols = append(insertCols, c.Name)
	}

	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv row %d: %v", ErrSourceUnavailable, rowIdx, err)
		}

		values := make([]string, 0, len(insertCols))
		if !hasID {
			values = append(values, fmt.Sprintf("'%d'", rowIdx))
		}
		for i := range columns {
			if i < len(record) {
				values = append(values, "'"+escapeSQL(record[i])+"'")
			} else {
				values = append(values, "NULL")
			}
		}

		insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			tableName,
			strings.Join(insertCols, ", "),
			strings.Join(values, ", "))
		if err := a.exec(insertSQL); err != nil {
			return nil, fmt.Errorf("%w: load csv row %d: %v", ErrSourceUnavailable, rowIdx, err)
		}
		rowIdx++
	}
	a.rowCount = int64(rowIdx)

	logger.Infof("Ingested CSV %s as table %s (%d rows, %d columns)",
		filepath.Base(locator), tableName, a.rowCount, len(columns))
	return a, nil
}

// OpenRows returns a fresh iteration over the ingested table. The logical
// table name a rule targets is accepted but not consulted: one CSV upload is
// exactly one queryable table.
func (a *csvAdapter) OpenRows(ctx context.Context, table string) (RowIter, error) {
	sqlCtx := a.newContext(ctx)
	schema, iter, _, err := a.engine.Query(sqlCtx, "SELECT * FROM "+a.tableName)
	if err != nil {
		return nil, fmt.Errorf("%w: query csv table: %v", ErrSourceUnavailable, err)
	}
	return &csvRowIter{ctx: sqlCtx, schema: schema, iter: iter}, nil
}

func (a *csvAdapter) RowCount(ctx context.Context, table string) (int64, error) {
	return a.rowCount, nil
}

func (a *csvAdapter) Close() error {
	a.engine.Close()
	return nil
}

func (a *csvAdapter) newContext(ctx context.Context) *sql.Context {
	session := memory.NewSession(sql.NewBaseSession(), a.provider)
	sqlCtx := sql.NewContext(ctx, sql.WithSession(session))
	sqlCtx.SetCurrentDatabase(csvDatabaseName)
	return sqlCtx
}

func (a *csvAdapter) exec(query string) error {
	sqlCtx := a.newContext(context.Background())
	_, iter, _, err := a.engine.Query(sqlCtx, query)
	if err != nil {
		return err
	}
	defer iter.Close(sqlCtx)
	for {
		if _, err := iter.Next(sqlCtx); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// csvRowIter maps engine rows back to column-keyed maps.
type csvRowIter struct {
	ctx    *sql.Context
	schema sql.Schema
	iter   sql.RowIter
}

func (it *csvRowIter) Next() (Row, error) {
	r, err := it.iter.Next(it.ctx)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetch csv row: %v", ErrSourceUnavailable, err)
	}
	row := make(Row, len(it.schema))
	for i, col := range it.schema {
		if i < len(r) {
			row[col.Name] = r[i]
		}
	}
	return row, nil
}

func (it *csvRowIter) Close() error {
	return it.iter.Close(it.ctx)
}

// csvTableName derives the fixed ingested table name from the uploaded file name.
func csvTableName(locator string) string {
	base := filepath.Base(locator)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = normalizeIdent(name)
	if name == "" {
		name = "data"
	}
	return name
}

func normalizeColumns(header []string) []string {
	cols := make([]string, len(header))
	seen := map[string]int{}
	for i, h := range header {
		col := normalizeIdent(h)
		if col == "" {
			col = "col_" + strconv.Itoa(i)
		}
		// Duplicate headers get positional suffixes to keep the schema valid.
		if n, ok := seen[col]; ok {
			seen[col] = n + 1
			col = col + "_" + strconv.Itoa(n+1)
		}
		seen[col] = 0
		cols[i] = col
	}
	return cols
}

// normalizeIdent lowercases and squashes anything outside [a-z0-9_] so column
// and table names are valid SQL identifiers regardless of the CSV header.
func normalizeIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	return out
}

// escapeSQL quotes a raw CSV value for a string literal. The engine's dialect
// treats backslash as an escape character, so both it and the quote itself
// need doubling.
var sqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

func escapeSQL(s string) string {
	return sqlEscaper.Replace(s)
}
