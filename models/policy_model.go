package models

import "time"

// Policy represents an uploaded compliance document from which rules are extracted.
type Policy struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	Filename  string    `gorm:"column:filename" json:"filename" validate:"required"`
	Status    string    `gorm:"column:status;default:pending" json:"status"` // pending, processing, completed, failed
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName specifies the static table name for GORM.
func (Policy) TableName() string {
	return "policies"
}
