package repository

import (
	"complianceos/config"
	"complianceos/models"

	"gorm.io/gorm"
)

// PolicyRepository provides data access operations for policy records.
type PolicyRepository interface {
	Create(tx *gorm.DB, policy *models.Policy) error
	GetByID(tx *gorm.DB, id uint) (*models.Policy, error)
	GetLatest(tx *gorm.DB) (*models.Policy, error)
	Count(tx *gorm.DB) (int64, error)
	Delete(tx *gorm.DB, id uint) error
}

type policyRepository struct {
	db *gorm.DB
}

// NewPolicyRepository creates a new policy repository instance.
func NewPolicyRepository() PolicyRepository {
	return &policyRepository{
		db: config.DB,
	}
}

func (r *policyRepository) Create(tx *gorm.DB, policy *models.Policy) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Create(policy).Error
}

func (r *policyRepository) GetByID(tx *gorm.DB, id uint) (*models.Policy, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var policy models.Policy
	if err := db.Model(models.Policy{}).Where("id = ?", id).First(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) GetLatest(tx *gorm.DB) (*models.Policy, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var policy models.Policy
	if err := db.Model(models.Policy{}).Order("id desc").First(&policy).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) Count(tx *gorm.DB) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var count int64
	if err := db.Model(models.Policy{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a policy and cascades to its rules in one transaction.
func (r *policyRepository) Delete(tx *gorm.DB, id uint) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("policy_id = ?", id).Delete(&models.Rule{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Policy{}, id).Error
	})
}
