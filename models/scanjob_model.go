package models

import "time"

// Scan job lifecycle states. Terminal states are final; a job is never re-entered.
const (
	ScanStatusQueued    = "queued"
	ScanStatusRunning   = "running"
	ScanStatusCompleted = "completed"
	ScanStatusFailed    = "failed"
)

// ScanJob represents one execution of all rules against the active data source.
// Mutated only by the scan orchestrator's background worker; pollers read snapshots.
// The TableName field labels what was scanned; GORM's default naming maps the
// struct to the scan_jobs table.
type ScanJob struct {
	ID              uint       `gorm:"primaryKey;column:id" json:"id"`
	TableName       string     `gorm:"column:table_name" json:"table_name"`
	Status          string     `gorm:"column:status;default:queued" json:"status"`
	Progress        int        `gorm:"column:progress;default:0" json:"progress"` // 0 to 100
	RecordsScanned  int64      `gorm:"column:records_scanned;default:0" json:"records_scanned"`
	ViolationsFound int64      `gorm:"column:violations_found;default:0" json:"violations_found"`
	StartTime       time.Time  `gorm:"column:start_time;autoCreateTime" json:"start_time"`
	EndTime         *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`
}

// IsTerminal reports whether the job has reached a final state.
func (j *ScanJob) IsTerminal() bool {
	return j.Status == ScanStatusCompleted || j.Status == ScanStatusFailed
}
