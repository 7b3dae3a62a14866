package models

import (
	"encoding/json"
	"time"
)

// Violation is an append-only record of a row that matched a rule during a scan job.
// Metadata holds the evidentiary row snapshot that justified the match, as JSON.
// The composite unique index prevents duplicate violations per rule and record
// within a single job. GORM's default naming maps the struct to the violations table.
type Violation struct {
	ID         uint      `gorm:"primaryKey;column:id" json:"id"`
	ScanJobID  uint      `gorm:"column:scan_job_id;index;uniqueIndex:idx_violations_unique_lookup" json:"scan_job_id"`
	RuleID     uint      `gorm:"column:rule_id;index;uniqueIndex:idx_violations_unique_lookup" json:"rule_id"`
	RuleName   string    `gorm:"column:rule_name" json:"rule_name"`
	Severity   string    `gorm:"column:severity;index" json:"severity"`
	TableName  string    `gorm:"column:table_name;uniqueIndex:idx_violations_unique_lookup" json:"table_name"`
	RecordID   string    `gorm:"column:record_id;uniqueIndex:idx_violations_unique_lookup" json:"record_id"`
	Metadata   string    `gorm:"column:metadata;type:text" json:"-"`
	DetectedAt time.Time `gorm:"column:detected_at;index;autoCreateTime" json:"detected_at"`
}

// MetadataMap decodes the stored row snapshot. Returns an empty map on malformed data
// so listing endpoints never fail on a single bad record.
func (v *Violation) MetadataMap() map[string]interface{} {
	if v.Metadata == "" {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(v.Metadata), &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}
