package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"gorm.io/gorm"

	"complianceos/models"
	"complianceos/repository"
)

type stubViolationRepo struct {
	violations []models.Violation
}

func (s *stubViolationRepo) BulkCreate(tx *gorm.DB, violations []models.Violation) error {
	s.violations = append(s.violations, violations...)
	return nil
}

func (s *stubViolationRepo) List(tx *gorm.DB, filter repository.ViolationFilter) ([]models.Violation, error) {
	out := []models.Violation{}
	for _, v := range s.violations {
		if filter.Severity != "" && v.Severity != filter.Severity {
			continue
		}
		if filter.ScanJobID != 0 && v.ScanJobID != filter.ScanJobID {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *stubViolationRepo) CountFiltered(tx *gorm.DB, filter repository.ViolationFilter) (int64, error) {
	matched, _ := s.List(tx, filter)
	return int64(len(matched)), nil
}

func (s *stubViolationRepo) Count(tx *gorm.DB) (int64, error) {
	return int64(len(s.violations)), nil
}

func (s *stubViolationRepo) ListBatch(tx *gorm.DB, offset, limit int) ([]models.Violation, error) {
	if offset >= len(s.violations) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.violations) {
		end = len(s.violations)
	}
	return s.violations[offset:end], nil
}

func sampleViolations() []models.Violation {
	detected := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	return []models.Violation{
		{ID: 1, ScanJobID: 1, RuleID: 2, RuleName: "No Personal Expenses", Severity: models.SeverityHigh,
			TableName: "expenses", RecordID: "4", Metadata: `{"category": "personal"}`, DetectedAt: detected},
		{ID: 2, ScanJobID: 1, RuleID: 4, RuleName: "Unattributed Invoice Detection", Severity: models.SeverityCritical,
			TableName: "invoices", RecordID: "9", Metadata: `{"vendor_id": ""}`, DetectedAt: detected},
		{ID: 3, ScanJobID: 2, RuleID: 2, RuleName: "No Personal Expenses", Severity: models.SeverityHigh,
			TableName: "expenses", RecordID: "11", Metadata: `not-json`, DetectedAt: detected},
	}
}

// TestViolationList_ViewMapping tests listing shape: decoded metadata and
// RFC3339 timestamps
func TestViolationList_ViewMapping(t *testing.T) {
	svc := NewViolationServiceWithDeps(&stubViolationRepo{violations: sampleViolations()}, 100)

	views, total, err := svc.List(repository.ViolationFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected total 3, got %d", total)
	}
	if len(views) != 3 {
		t.Fatalf("Expected 3 views, got %d", len(views))
	}

	if views[0].Metadata["category"] != "personal" {
		t.Errorf("Expected decoded metadata, got %v", views[0].Metadata)
	}
	if views[0].DetectedAt != "2025-06-01T10:30:00Z" {
		t.Errorf("Expected RFC3339 timestamp, got %s", views[0].DetectedAt)
	}
	// Malformed metadata degrades to an empty map, never an error.
	if len(views[2].Metadata) != 0 {
		t.Errorf("Expected empty metadata for malformed record, got %v", views[2].Metadata)
	}
}

// TestViolationList_Filters tests severity and scan job filters
func TestViolationList_Filters(t *testing.T) {
	svc := NewViolationServiceWithDeps(&stubViolationRepo{violations: sampleViolations()}, 100)

	views, total, err := svc.List(repository.ViolationFilter{Severity: models.SeverityCritical})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(views) != 1 {
		t.Fatalf("Expected 1 critical violation, got total=%d len=%d", total, len(views))
	}
	if views[0].RuleName != "Unattributed Invoice Detection" {
		t.Errorf("Unexpected rule name %s", views[0].RuleName)
	}

	_, total, err = svc.List(repository.ViolationFilter{ScanJobID: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 violation for job 2, got %d", total)
	}
}

// TestExportCSV tests the streamed export: header row plus one line per
// violation, batched through the repository
func TestExportCSV(t *testing.T) {
	// Batch size below the record count forces multiple ListBatch pages.
	svc := NewViolationServiceWithDeps(&stubViolationRepo{violations: sampleViolations()}, 2)

	var buf bytes.Buffer
	if err := svc.ExportCSV(&buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Export output is not valid CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d records", len(records))
	}

	header := records[0]
	wantHeader := []string{"id", "rule_name", "severity", "table_name", "record_id", "detected_at"}
	for i, col := range wantHeader {
		if header[i] != col {
			t.Errorf("Expected header column %d to be %s, got %s", i, col, header[i])
		}
	}

	if records[2][1] != "Unattributed Invoice Detection" || records[2][2] != "critical" {
		t.Errorf("Unexpected second data row: %v", records[2])
	}
	if records[3][5] != "2025-06-01T10:30:00Z" {
		t.Errorf("Expected RFC3339 detected_at, got %s", records[3][5])
	}
}
