package repository

import (
	"complianceos/config"
	"complianceos/models"

	"gorm.io/gorm"
)

// RuleRepository provides data access operations for extracted compliance rules.
type RuleRepository interface {
	BulkCreate(tx *gorm.DB, rules []models.Rule) error
	GetAll(tx *gorm.DB) ([]models.Rule, error)
	GetByPolicy(tx *gorm.DB, policyID uint) ([]models.Rule, error)
	Count(tx *gorm.DB) (int64, error)
}

type ruleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a new rule repository instance.
func NewRuleRepository() RuleRepository {
	return &ruleRepository{
		db: config.DB,
	}
}

func (r *ruleRepository) BulkCreate(tx *gorm.DB, rules []models.Rule) error {
	db := tx
	if db == nil {
		db = r.db
	}
	if len(rules) == 0 {
		return nil
	}
	return db.Create(&rules).Error
}

// GetAll returns every rule across all policies in ascending id order.
// The scan orchestrator relies on this ordering for stable rule iteration.
func (r *ruleRepository) GetAll(tx *gorm.DB) ([]models.Rule, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var rules []models.Rule
	if err := db.Model(models.Rule{}).Order("id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) GetByPolicy(tx *gorm.DB, policyID uint) ([]models.Rule, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var rules []models.Rule
	if err := db.Model(models.Rule{}).Where("policy_id = ?", policyID).Order("id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *ruleRepository) Count(tx *gorm.DB) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	var count int64
	if err := db.Model(models.Rule{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
