package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"complianceos/config"
	"complianceos/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlAdapter serves postgres, mysql and sqlite sources through the matching
// GORM driver. All access is raw SELECTs scanned into column-keyed maps.
type sqlAdapter struct {
	db   *gorm.DB
	kind string
}

func openSQLAdapter(kind, locator string) (Adapter, error) {
	var dialector gorm.Dialector
	switch kind {
	case "postgres":
		dialector = postgres.Open(locator)
	case "mysql":
		dialector = mysql.Open(locator)
	case "sqlite":
		dialector = sqlite.Open(locator)
	default:
		return nil, fmt.Errorf("unsupported SQL source kind: %s", kind)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s source: %v", ErrSourceUnavailable, kind, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), config.Cfg.SourceOpTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("%w: ping %s source: %v", ErrSourceUnavailable, kind, err)
	}

	logger.Infof("Opened %s data source adapter", kind)
	return &sqlAdapter{db: db, kind: kind}, nil
}

func (a *sqlAdapter) resolveTable(table string) (string, error) {
	if !validIdent(table) {
		return "", fmt.Errorf("%w: invalid table name %q", ErrSchemaMismatch, table)
	}
	if !a.db.Migrator().HasTable(table) {
		return "", fmt.Errorf("%w: %s", ErrSchemaMismatch, table)
	}
	return table, nil
}

func (a *sqlAdapter) OpenRows(ctx context.Context, table string) (RowIter, error) {
	resolved, err := a.resolveTable(table)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, config.Cfg.SourceOpTimeout)
	rows, err := a.db.WithContext(opCtx).Raw("SELECT * FROM " + resolved).Rows()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: query %s: %v", ErrSourceUnavailable, resolved, err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return &sqlRowIter{rows: rows, columns: columns, cancel: cancel}, nil
}

func (a *sqlAdapter) RowCount(ctx context.Context, table string) (int64, error) {
	resolved, err := a.resolveTable(table)
	if err != nil {
		return 0, err
	}

	opCtx, cancel := context.WithTimeout(ctx, config.Cfg.SourceOpTimeout)
	defer cancel()
	var count int64
	if err := a.db.WithContext(opCtx).Raw("SELECT COUNT(*) FROM " + resolved).Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count %s: %v", ErrSourceUnavailable, resolved, err)
	}
	return count, nil
}

func (a *sqlAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqlRowIter adapts database/sql row scanning to the Row map contract.
type sqlRowIter struct {
	rows    *sql.Rows
	columns []string
	cancel  context.CancelFunc
}

func (it *sqlRowIter) Next() (Row, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return nil, io.EOF
	}

	values := make([]interface{}, len(it.columns))
	pointers := make([]interface{}, len(it.columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := it.rows.Scan(pointers...); err != nil {
		return nil, fmt.Errorf("%w: scan row: %v", ErrSourceUnavailable, err)
	}

	row := make(Row, len(it.columns))
	for i, col := range it.columns {
		// Drivers hand back []byte for text columns; normalize to string so
		// predicates compare values uniformly across backends.
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
		} else {
			row[col] = values[i]
		}
	}
	return row, nil
}

func (it *sqlRowIter) Close() error {
	defer it.cancel()
	return it.rows.Close()
}
