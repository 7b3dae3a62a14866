package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"complianceos/repository"
)

// Stats aggregates dashboard counters derived from the engine's entities.
type Stats struct {
	Policies      int64  `json:"policies"`
	Rules         int64  `json:"rules"`
	Violations    int64  `json:"violations"`
	LastScan      string `json:"last_scan"`
	OverallHealth int    `json:"overall_health"`
	TotalRecords  int64  `json:"total_records"`
}

// StatsService computes aggregate dashboard counters.
type StatsService interface {
	GetStats() (*Stats, error)
}

type statsService struct {
	policyRepo    repository.PolicyRepository
	ruleRepo      repository.RuleRepository
	scanJobRepo   repository.ScanJobRepository
	violationRepo repository.ViolationRepository
}

// NewStatsService creates a new stats service instance.
func NewStatsService() StatsService {
	return &statsService{
		policyRepo:    repository.NewPolicyRepository(),
		ruleRepo:      repository.NewRuleRepository(),
		scanJobRepo:   repository.NewScanJobRepository(),
		violationRepo: repository.NewViolationRepository(),
	}
}

func (s *statsService) GetStats() (*Stats, error) {
	policies, err := s.policyRepo.Count(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count policies: %w", err)
	}
	rules, err := s.ruleRepo.Count(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count rules: %w", err)
	}
	violations, err := s.violationRepo.Count(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count violations: %w", err)
	}
	totalRecords, err := s.scanJobRepo.SumRecordsScanned(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to total scanned records: %w", err)
	}

	lastScan := "--"
	if job, err := s.scanJobRepo.GetLatest(nil); err == nil {
		lastScan = job.StartTime.Format("2006-01-02 03:04 PM")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load latest scan: %w", err)
	}

	return &Stats{
		Policies:      policies,
		Rules:         rules,
		Violations:    violations,
		LastScan:      lastScan,
		OverallHealth: healthScore(violations, totalRecords),
		TotalRecords:  totalRecords,
	}, nil
}

// healthScore derives a 0-100 score from violation density: each violation
// subtracts from 100 in proportion to the scanned record volume. No scanned
// records yet means a clean slate.
func healthScore(violations, totalRecords int64) int {
	if totalRecords <= 0 {
		return 100
	}
	denominator := totalRecords / 10
	if denominator < 1 {
		denominator = 1
	}
	score := 100 - int(violations*100/denominator)
	if score < 0 {
		score = 0
	}
	return score
}
