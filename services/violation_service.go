package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"complianceos/config"
	"complianceos/pkg/logger"
	"complianceos/repository"
)

// ViolationView is the listing shape for one violation, with the evidentiary
// row snapshot decoded for clients.
type ViolationView struct {
	ID         uint                   `json:"id"`
	ScanJobID  uint                   `json:"scan_job_id"`
	RuleID     uint                   `json:"rule_id"`
	RuleName   string                 `json:"rule_name"`
	Severity   string                 `json:"severity"`
	TableName  string                 `json:"table_name"`
	RecordID   string                 `json:"record_id"`
	DetectedAt string                 `json:"detected_at"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ViolationService exposes the violation store: ordered listing with filters
// and streaming CSV export. Violations are append-only; writes happen on the
// scan worker through the repository.
type ViolationService interface {
	List(filter repository.ViolationFilter) ([]ViolationView, int64, error)
	ExportCSV(w io.Writer) error
}

type violationService struct {
	violationRepo repository.ViolationRepository
	batchSize     int
}

// NewViolationService creates a new violation service instance.
func NewViolationService() ViolationService {
	return NewViolationServiceWithDeps(repository.NewViolationRepository(), config.Cfg.ViolationBatchSize)
}

// NewViolationServiceWithDeps creates a violation service with an injected repository.
func NewViolationServiceWithDeps(repo repository.ViolationRepository, batchSize int) ViolationService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &violationService{violationRepo: repo, batchSize: batchSize}
}

// List returns violations most-recent-detected first plus the total count for
// the filter, so clients can paginate.
func (s *violationService) List(filter repository.ViolationFilter) ([]ViolationView, int64, error) {
	total, err := s.violationRepo.CountFiltered(nil, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count violations: %w", err)
	}

	violations, err := s.violationRepo.List(nil, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list violations: %w", err)
	}

	views := make([]ViolationView, 0, len(violations))
	for _, v := range violations {
		views = append(views, ViolationView{
			ID:         v.ID,
			ScanJobID:  v.ScanJobID,
			RuleID:     v.RuleID,
			RuleName:   v.RuleName,
			Severity:   v.Severity,
			TableName:  v.TableName,
			RecordID:   v.RecordID,
			DetectedAt: v.DetectedAt.Format(time.RFC3339),
			Metadata:   v.MetadataMap(),
		})
	}
	return views, total, nil
}

// ExportCSV streams all violations as CSV in fixed batches so large result
// sets never load into memory at once.
func (s *violationService) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "rule_name", "severity", "table_name", "record_id", "detected_at"}); err != nil {
		return err
	}

	offset := 0
	for {
		batch, err := s.violationRepo.ListBatch(nil, offset, s.batchSize)
		if err != nil {
			return fmt.Errorf("failed to fetch violations for export: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, v := range batch {
			record := []string{
				strconv.FormatUint(uint64(v.ID), 10),
				v.RuleName,
				v.Severity,
				v.TableName,
				v.RecordID,
				v.DetectedAt.Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return err
		}
		offset += len(batch)
	}

	writer.Flush()
	logger.Debugf("Exported %d violations as CSV", offset)
	return writer.Error()
}
