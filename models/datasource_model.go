package models

import "time"

// Data source kinds supported by the scan engine.
const (
	SourceKindPostgres = "postgres"
	SourceKindMySQL    = "mysql"
	SourceKindSQLite   = "sqlite"
	SourceKindCSV      = "csv"
)

// DataSource represents a connected, read-only data origin scans run against.
// Locator is a DSN for database kinds or a file path for CSV kinds.
// At most one data source is active at any time; activation is exclusive.
type DataSource struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	Name      string    `gorm:"column:name" json:"name" validate:"required"`
	Kind      string    `gorm:"column:kind" json:"kind" validate:"required,oneof=postgres mysql sqlite csv"`
	Locator   string    `gorm:"column:locator" json:"locator" validate:"required"`
	IsActive  bool      `gorm:"column:is_active;default:false" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the static table name for GORM.
func (DataSource) TableName() string {
	return "data_sources"
}
