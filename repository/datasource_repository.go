package repository

import (
	"complianceos/config"
	"complianceos/models"

	"gorm.io/gorm"
)

// DataSourceRepository provides data access operations for data source connection records.
type DataSourceRepository interface {
	Create(tx *gorm.DB, ds *models.DataSource) error
	GetByID(tx *gorm.DB, id uint) (*models.DataSource, error)
	GetAll(tx *gorm.DB) ([]models.DataSource, error)
	GetActive(tx *gorm.DB) (*models.DataSource, error)
	Activate(tx *gorm.DB, id uint) error
	Delete(tx *gorm.DB, id uint) error
}

type dataSourceRepository struct {
	db *gorm.DB
}

// NewDataSourceRepository creates a new data source repository instance.
func NewDataSourceRepository() DataSourceRepository {
	return &dataSourceRepository{
		db: config.DB,
	}
}

func (r *dataSourceRepository) Create(tx *gorm.DB, ds *models.DataSource) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(ds).Error
}

func (r *dataSourceRepository) GetByID(tx *gorm.DB, id uint) (*models.DataSource, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var ds models.DataSource
	if err := db.Model(models.DataSource{}).Where("id = ?", id).First(&ds).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

func (r *dataSourceRepository) GetAll(tx *gorm.DB) ([]models.DataSource, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var sources []models.DataSource
	if err := db.Model(models.DataSource{}).Order("id asc").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// GetActive returns the single active data source, or gorm.ErrRecordNotFound.
func (r *dataSourceRepository) GetActive(tx *gorm.DB) (*models.DataSource, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var ds models.DataSource
	if err := db.Model(models.DataSource{}).Where("is_active = ?", true).First(&ds).Error; err != nil {
		return nil, err
	}
	return &ds, nil
}

// Activate makes the given data source the single active one.
// Deactivation of all others and activation of the target run in one transaction
// so the at-most-one-active invariant holds for any sequence of activate calls.
func (r *dataSourceRepository) Activate(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var ds models.DataSource
		if err := tx.Model(models.DataSource{}).Where("id = ?", id).First(&ds).Error; err != nil {
			return err
		}
		if err := tx.Model(models.DataSource{}).Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(models.DataSource{}).Where("id = ?", id).
			Update("is_active", true).Error
	})
}

func (r *dataSourceRepository) Delete(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Delete(&models.DataSource{}, id).Error
}
