// Package scan owns the scan job lifecycle: request validation, the global
// run gate, background rule evaluation, progress accounting and terminal
// state transitions.
package scan

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"complianceos/config"
	"complianceos/models"
	"complianceos/pkg/logger"
	"complianceos/repository"
	"complianceos/services/datasource"
	"complianceos/services/evaluator"
)

// Service orchestrates scan jobs. A request returns immediately with the
// queued job's id while evaluation proceeds on a background worker.
type Service interface {
	RequestScan() (uint, error)
	GetStatus(jobID uint) (*models.ScanJob, error)
	ListJobs() ([]models.ScanJob, error)
	// Wait blocks until any in-flight scan run has finished. Used during
	// shutdown so a running job reaches a terminal state before exit.
	Wait()
}

type scanService struct {
	ruleRepo      repository.RuleRepository
	dsRepo        repository.DataSourceRepository
	jobRepo       repository.ScanJobRepository
	violationRepo repository.ViolationRepository
	openAdapter   datasource.Factory

	ruleRetries    int
	retryBaseDelay time.Duration
	batchSize      int

	// The run gate: at most one job is running at any instant. Checking the
	// gate and creating the queued job happen under one lock so concurrent
	// requests cannot both pass.
	mu      sync.Mutex
	running bool

	wg sync.WaitGroup
}

// NewService creates the scan orchestrator with production dependencies.
func NewService() Service {
	return NewServiceWithDeps(
		repository.NewRuleRepository(),
		repository.NewDataSourceRepository(),
		repository.NewScanJobRepository(),
		repository.NewViolationRepository(),
		datasource.Open,
	)
}

// NewServiceWithDeps creates the scan orchestrator with injected dependencies.
// Used by tests to substitute repositories and adapters.
func NewServiceWithDeps(
	ruleRepo repository.RuleRepository,
	dsRepo repository.DataSourceRepository,
	jobRepo repository.ScanJobRepository,
	violationRepo repository.ViolationRepository,
	openAdapter datasource.Factory,
) Service {
	retries := config.Cfg.ScanRuleRetries
	delay := config.Cfg.ScanRetryBaseDelay
	batch := config.Cfg.ViolationBatchSize
	if batch <= 0 {
		batch = 1000
	}
	return &scanService{
		ruleRepo:       ruleRepo,
		dsRepo:         dsRepo,
		jobRepo:        jobRepo,
		violationRepo:  violationRepo,
		openAdapter:    openAdapter,
		ruleRetries:    retries,
		retryBaseDelay: delay,
		batchSize:      batch,
	}
}

// RequestScan validates preconditions, allocates a queued job and schedules
// the background run. Returns the job id immediately.
func (s *scanService) RequestScan() (uint, error) {
	ruleCount, err := s.ruleRepo.Count(nil)
	if err != nil {
		return 0, err
	}
	if ruleCount == 0 {
		return 0, ErrNoRulesAvailable
	}

	active, err := s.dsRepo.GetActive(nil)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoActiveDataSource
		}
		return 0, err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0, ErrScanAlreadyRunning
	}

	job := &models.ScanJob{
		TableName: scanTableName(active),
		Status:    models.ScanStatusQueued,
		StartTime: time.Now(),
	}
	if err := s.jobRepo.Create(nil, job); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	s.running = true
	s.mu.Unlock()

	logger.Infof("Scan job %d queued against data source %q (%s)", job.ID, active.Name, active.Kind)

	// The active source is snapshotted here: re-activating a different source
	// mid-run does not change what this job reads.
	sourceCopy := *active
	s.wg.Add(1)
	go s.run(job, &sourceCopy)

	return job.ID, nil
}

// GetStatus returns the latest persisted snapshot of a job. Safe to call
// concurrently with a run: the background worker is the row's only writer.
func (s *scanService) GetStatus(jobID uint) (*models.ScanJob, error) {
	job, err := s.jobRepo.GetByID(nil, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListJobs returns all scan jobs, newest first.
func (s *scanService) ListJobs() ([]models.ScanJob, error) {
	return s.jobRepo.GetAll(nil)
}

func (s *scanService) Wait() {
	s.wg.Wait()
}

// run executes the scan on the background worker and always releases the run
// gate on exit.
func (s *scanService) run(job *models.ScanJob, source *models.DataSource) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx := context.Background()

	job.Status = models.ScanStatusRunning
	if err := s.jobRepo.Update(nil, job); err != nil {
		logger.Errorf("Scan job %d: failed to persist running state: %v", job.ID, err)
	}

	adapter, err := s.openAdapter(source)
	if err != nil {
		logger.Errorf("Scan job %d: cannot open data source %q: %v", job.ID, source.Name, err)
		s.finish(job, models.ScanStatusFailed)
		return
	}
	defer adapter.Close()

	rules, err := s.ruleRepo.GetAll(nil)
	if err != nil || len(rules) == 0 {
		logger.Errorf("Scan job %d: cannot load rules: %v", job.ID, err)
		s.finish(job, models.ScanStatusFailed)
		return
	}

	totalRows := s.countTotalRows(ctx, adapter, rules)

	sourceFailures := 0
	lastProgress := 0

	for _, rule := range rules {
		result, err := s.evaluateWithRetry(ctx, &rule, adapter)
		if err != nil {
			// Failure isolation: a single rule's error never aborts the run.
			// Schema mismatches and malformed predicates are plain skips;
			// source errors are tallied to detect systemic loss below.
			if errors.Is(err, datasource.ErrSourceUnavailable) {
				sourceFailures++
				logger.Errorf("Scan job %d: rule %d (%s): source unavailable after retries: %v",
					job.ID, rule.ID, rule.Name, err)
			} else {
				logger.Warnf("Scan job %d: rule %d (%s) skipped: %v", job.ID, rule.ID, rule.Name, err)
			}
		} else {
			job.RecordsScanned += result.RowsScanned
			if err := s.persistCandidates(job, &rule, result.Candidates); err != nil {
				logger.Errorf("Scan job %d: rule %d: failed to persist violations: %v",
					job.ID, rule.ID, err)
			} else {
				job.ViolationsFound += int64(len(result.Candidates))
			}
		}

		// Progress is recomputed per rule and never regresses between
		// observations.
		if p := progressPercent(job.RecordsScanned, totalRows); p > lastProgress {
			lastProgress = p
		}
		job.Progress = lastProgress
		if err := s.jobRepo.Update(nil, job); err != nil {
			logger.Errorf("Scan job %d: failed to persist progress: %v", job.ID, err)
		}
	}

	// Only total source loss fails the run; partial counters stay intact
	// either way.
	if sourceFailures == len(rules) {
		logger.Errorf("Scan job %d: data source failed for every rule, marking job failed", job.ID)
		s.finish(job, models.ScanStatusFailed)
		return
	}

	job.Progress = 100
	s.finish(job, models.ScanStatusCompleted)
	logger.Infof("Scan job %d completed: %d records scanned, %d violations found",
		job.ID, job.RecordsScanned, job.ViolationsFound)
}

// evaluateWithRetry retries a rule a bounded number of times on source
// errors before giving up on that rule.
func (s *scanService) evaluateWithRetry(ctx context.Context, rule *models.Rule, adapter datasource.Adapter) (*evaluator.Result, error) {
	var lastErr error
	for attempt := 0; attempt <= s.ruleRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryBaseDelay * time.Duration(attempt))
			logger.Debugf("Rule %d: retry attempt %d", rule.ID, attempt)
		}
		result, err := evaluator.Evaluate(ctx, rule, adapter)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !errors.Is(err, datasource.ErrSourceUnavailable) {
			// Not retryable: schema mismatch or a malformed predicate won't
			// fix itself.
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *scanService) persistCandidates(job *models.ScanJob, rule *models.Rule, candidates []evaluator.Candidate) error {
	for start := 0; start < len(candidates); start += s.batchSize {
		end := start + s.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := make([]models.Violation, 0, end-start)
		for _, c := range candidates[start:end] {
			batch = append(batch, models.Violation{
				ScanJobID:  job.ID,
				RuleID:     rule.ID,
				RuleName:   rule.Name,
				Severity:   rule.Severity,
				TableName:  rule.TargetTable,
				RecordID:   c.RecordID,
				Metadata:   evaluator.EncodeMetadata(c.Metadata),
				DetectedAt: time.Now(),
			})
		}
		if err := s.violationRepo.BulkCreate(nil, batch); err != nil {
			return err
		}
	}
	return nil
}

// countTotalRows computes the progress denominator: the sum of each rule's
// target table row count. RecordsScanned accumulates the same way, once per
// rule, so rules sharing a table contribute to both sides equally. The cache
// only avoids re-querying a table's count.
func (s *scanService) countTotalRows(ctx context.Context, adapter datasource.Adapter, rules []models.Rule) int64 {
	counts := make(map[string]int64)
	var total int64
	for _, rule := range rules {
		count, ok := counts[rule.TargetTable]
		if !ok {
			c, err := adapter.RowCount(ctx, rule.TargetTable)
			if err != nil {
				logger.Warnf("Row count for table %q failed: %v", rule.TargetTable, err)
				c = 0
			}
			counts[rule.TargetTable] = c
			count = c
		}
		total += count
	}
	return total
}

func (s *scanService) finish(job *models.ScanJob, status string) {
	now := time.Now()
	job.Status = status
	job.EndTime = &now
	if err := s.jobRepo.Update(nil, job); err != nil {
		logger.Errorf("Scan job %d: failed to persist terminal state %s: %v", job.ID, status, err)
	}
}

func progressPercent(scanned, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(scanned) / float64(total) * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// scanTableName labels the job for history listings: the uploaded file for
// CSV sources, all tables otherwise.
func scanTableName(ds *models.DataSource) string {
	if ds.Kind == models.SourceKindCSV {
		return filepath.Base(ds.Locator)
	}
	return "All Tables"
}
