package models

import "time"

// Severity levels assigned to extracted compliance rules.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Rule represents a structural compliance condition over a target table's rows.
// Rules are immutable once extracted and are removed when their policy is deleted.
// Predicate holds the structured condition as JSON: {"column": ..., "operator": ..., "value": ...}.
// Condition keeps the human-readable text the extractor produced.
type Rule struct {
	ID          uint      `gorm:"primaryKey;column:id" json:"id"`
	PolicyID    uint      `gorm:"column:policy_id;index" json:"policy_id" validate:"required"`
	Name        string    `gorm:"column:name" json:"name" validate:"required"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Severity    string    `gorm:"column:severity;default:medium" json:"severity" validate:"required,oneof=low medium high critical"`
	TargetTable string    `gorm:"column:target_table" json:"target_table" validate:"required"`
	Predicate   string    `gorm:"column:predicate;type:text" json:"predicate"`
	Condition   string    `gorm:"column:condition;type:text" json:"condition"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the static table name for GORM.
func (Rule) TableName() string {
	return "rules"
}
