package repository

import (
	"complianceos/config"
	"complianceos/models"

	"gorm.io/gorm"
)

// ScanJobRepository provides data access operations for scan job records.
type ScanJobRepository interface {
	Create(tx *gorm.DB, job *models.ScanJob) error
	Update(tx *gorm.DB, job *models.ScanJob) error
	GetByID(tx *gorm.DB, id uint) (*models.ScanJob, error)
	GetAll(tx *gorm.DB) ([]models.ScanJob, error)
	GetLatest(tx *gorm.DB) (*models.ScanJob, error)
	SumRecordsScanned(tx *gorm.DB) (int64, error)
}

type scanJobRepository struct {
	db *gorm.DB
}

// NewScanJobRepository creates a new scan job repository instance.
func NewScanJobRepository() ScanJobRepository {
	return &scanJobRepository{
		db: config.DB,
	}
}

func (r *scanJobRepository) Create(tx *gorm.DB, job *models.ScanJob) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(job).Error
}

// Update persists the full job row. The orchestrator is the single writer,
// so a plain save never races with another mutator.
func (r *scanJobRepository) Update(tx *gorm.DB, job *models.ScanJob) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Save(job).Error
}

func (r *scanJobRepository) GetByID(tx *gorm.DB, id uint) (*models.ScanJob, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var job models.ScanJob
	if err := db.Model(models.ScanJob{}).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *scanJobRepository) GetAll(tx *gorm.DB) ([]models.ScanJob, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var jobs []models.ScanJob
	if err := db.Model(models.ScanJob{}).Order("start_time desc").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *scanJobRepository) GetLatest(tx *gorm.DB) (*models.ScanJob, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var job models.ScanJob
	if err := db.Model(models.ScanJob{}).Order("start_time desc").First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// SumRecordsScanned totals records_scanned across all jobs for the stats endpoint.
func (r *scanJobRepository) SumRecordsScanned(tx *gorm.DB) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var total int64
	if err := db.Model(models.ScanJob{}).
		Select("COALESCE(SUM(records_scanned), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
