package repository

import (
	"complianceos/config"
	"complianceos/models"

	"gorm.io/gorm"
)

// ViolationFilter narrows violation listings. Zero values mean "no filter".
type ViolationFilter struct {
	ScanJobID uint
	Severity  string
	Limit     int
	Offset    int
}

// ViolationRepository provides data access operations for violation records.
// Violations are append-only; there are no update or delete operations.
type ViolationRepository interface {
	BulkCreate(tx *gorm.DB, violations []models.Violation) error
	List(tx *gorm.DB, filter ViolationFilter) ([]models.Violation, error)
	CountFiltered(tx *gorm.DB, filter ViolationFilter) (int64, error)
	Count(tx *gorm.DB) (int64, error)
	ListBatch(tx *gorm.DB, offset, limit int) ([]models.Violation, error)
}

type violationRepository struct {
	db *gorm.DB
}

// NewViolationRepository creates a new violation repository instance.
func NewViolationRepository() ViolationRepository {
	return &violationRepository{
		db: config.DB,
	}
}

func (r *violationRepository) BulkCreate(tx *gorm.DB, violations []models.Violation) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if len(violations) == 0 {
		return nil
	}
	return db.Create(&violations).Error
}

func applyViolationFilter(db *gorm.DB, filter ViolationFilter) *gorm.DB {
	q := db.Model(models.Violation{})
	if filter.ScanJobID != 0 {
		q = q.Where("scan_job_id = ?", filter.ScanJobID)
	}
	if filter.Severity != "" {
		q = q.Where("severity = ?", filter.Severity)
	}
	return q
}

// List returns violations most-recent-detected first.
func (r *violationRepository) List(tx *gorm.DB, filter ViolationFilter) ([]models.Violation, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	q := applyViolationFilter(db, filter).Order("detected_at desc, id desc")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var violations []models.Violation
	if err := q.Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}

func (r *violationRepository) CountFiltered(tx *gorm.DB, filter ViolationFilter) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var count int64
	if err := applyViolationFilter(db, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *violationRepository) Count(tx *gorm.DB) (int64, error) {
	return r.CountFiltered(tx, ViolationFilter{})
}

// ListBatch pages through all violations in insertion order for streaming export.
func (r *violationRepository) ListBatch(tx *gorm.DB, offset, limit int) ([]models.Violation, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var violations []models.Violation
	if err := db.Model(models.Violation{}).Order("id asc").
		Offset(offset).Limit(limit).Find(&violations).Error; err != nil {
		return nil, err
	}
	return violations, nil
}
