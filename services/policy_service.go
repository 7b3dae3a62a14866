package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"complianceos/config"
	"complianceos/models"
	"complianceos/pkg/logger"
	"complianceos/repository"
)

// ErrPolicyNotFound is returned for operations on unknown policy ids.
var ErrPolicyNotFound = errors.New("policy not found")

// PolicyService handles policy document upload and rule management.
// Real NLP-based rule extraction lives outside this service; ExtractRules
// installs the stock extracted rule set in its place.
type PolicyService interface {
	Upload(filename string, src io.Reader) (*models.Policy, error)
	ExtractRules(policyID uint) (int, error)
	ListRules() ([]models.Rule, error)
	ListRulesByPolicy(policyID uint) ([]models.Rule, error)
	GetLatest() (*models.Policy, error)
	Delete(policyID uint) error
}

type policyService struct {
	policyRepo repository.PolicyRepository
	ruleRepo   repository.RuleRepository
	uploadDir  string
}

// NewPolicyService creates a new policy service instance.
func NewPolicyService() PolicyService {
	return &policyService{
		policyRepo: repository.NewPolicyRepository(),
		ruleRepo:   repository.NewRuleRepository(),
		uploadDir:  config.Cfg.UploadDir,
	}
}

// Upload stores the policy document on disk and records it.
func (s *policyService) Upload(filename string, src io.Reader) (*models.Policy, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.uploadDir, filepath.Base(filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to store policy document: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to write policy document: %w", err)
	}

	policy := &models.Policy{
		Filename: filepath.Base(filename),
		Status:   "completed",
	}
	if err := s.policyRepo.Create(nil, policy); err != nil {
		return nil, fmt.Errorf("failed to record policy: %w", err)
	}

	logger.Infof("Policy document %q uploaded as policy %d", policy.Filename, policy.ID)
	return policy, nil
}

// ExtractRules attaches the stock extracted rule set to a policy and returns
// the number of rules added.
func (s *policyService) ExtractRules(policyID uint) (int, error) {
	if _, err := s.policyRepo.GetByID(nil, policyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPolicyNotFound
		}
		return 0, err
	}

	rules := stockRules(policyID)
	if err := s.ruleRepo.BulkCreate(nil, rules); err != nil {
		return 0, fmt.Errorf("failed to store extracted rules: %w", err)
	}

	logger.Infof("Extracted %d rules for policy %d", len(rules), policyID)
	return len(rules), nil
}

func (s *policyService) ListRules() ([]models.Rule, error) {
	return s.ruleRepo.GetAll(nil)
}

func (s *policyService) ListRulesByPolicy(policyID uint) ([]models.Rule, error) {
	if _, err := s.policyRepo.GetByID(nil, policyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	return s.ruleRepo.GetByPolicy(nil, policyID)
}

func (s *policyService) GetLatest() (*models.Policy, error) {
	policy, err := s.policyRepo.GetLatest(nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPolicyNotFound
		}
		return nil, err
	}
	return policy, nil
}

// Delete removes a policy and cascades to its extracted rules.
func (s *policyService) Delete(policyID uint) error {
	if _, err := s.policyRepo.GetByID(nil, policyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPolicyNotFound
		}
		return err
	}
	if err := s.policyRepo.Delete(nil, policyID); err != nil {
		return fmt.Errorf("failed to delete policy %d: %w", policyID, err)
	}
	logger.Infof("Deleted policy %d and its rules", policyID)
	return nil
}

// stockRules is the stand-in for the NLP extractor: the structured rule set
// the compliance team ships for demonstration and acceptance testing.
func stockRules(policyID uint) []models.Rule {
	return []models.Rule{
		{
			PolicyID:    policyID,
			Name:        "Monitor New Users",
			Description: "Identify users created after 2022 for compliance review.",
			Severity:    models.SeverityMedium,
			TargetTable: "users",
			Condition:   "created_date > '2022-01-01'",
			Predicate:   `{"column": "created_date", "operator": "greater_than", "value": "2022-01-01"}`,
		},
		{
			PolicyID:    policyID,
			Name:        "No Personal Expenses",
			Description: "Detects corporate card usage for non-work related purchases.",
			Severity:    models.SeverityHigh,
			TargetTable: "expenses",
			Condition:   "category = 'personal'",
			Predicate:   `{"column": "category", "operator": "equals", "value": "personal"}`,
		},
		{
			PolicyID:    policyID,
			Name:        "Travel Limit Check",
			Description: "Ensures flight bookings don't exceed $1,000 without approval.",
			Severity:    models.SeverityMedium,
			TargetTable: "travel_bookings",
			Condition:   "amount > 1000",
			Predicate:   `{"column": "amount", "operator": "greater_than", "value": 1000}`,
		},
		{
			PolicyID:    policyID,
			Name:        "Unattributed Invoice Detection",
			Description: "Flags invoices that carry no vendor attribution.",
			Severity:    models.SeverityCritical,
			TargetTable: "invoices",
			Condition:   "vendor_id IS NULL",
			Predicate:   `{"column": "vendor_id", "operator": "absent"}`,
		},
		{
			PolicyID:    policyID,
			Name:        "High Risk Jurisdiction Check",
			Description: "Detects accounts related to Switzerland banks for additional KYC.",
			Severity:    models.SeverityMedium,
			TargetTable: "bank_accounts",
			Condition:   "bank_name LIKE 'Switzerland%'",
			Predicate:   `{"column": "bank_name", "operator": "matches", "value": "^Switzerland"}`,
		},
	}
}
