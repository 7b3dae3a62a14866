package scan

import (
	"os"
	"path/filepath"
	"testing"

	"complianceos/models"
	"complianceos/services/datasource"
)

// TestScan_CSVEndToEnd runs a real scan over an ingested CSV file: three
// rules of different severities against ten rows where exactly two rows
// violate the critical rule.
func TestScan_CSVEndToEnd(t *testing.T) {
	content := "id,category,amount,vendor_id\n" +
		"1,travel,400,V-01\n" +
		"2,meals,35,V-02\n" +
		"3,travel,120,V-03\n" +
		"4,office,60,\n" +
		"5,meals,22,V-05\n" +
		"6,travel,800,V-06\n" +
		"7,office,15,V-07\n" +
		"8,meals,48,\n" +
		"9,travel,310,V-09\n" +
		"10,office,95,V-10\n"
	path := filepath.Join(t.TempDir(), "invoices.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing scenario csv: %v", err)
	}

	rules := []models.Rule{
		{ID: 1, Name: "Amount Recorded", Severity: models.SeverityLow, TargetTable: "invoices",
			Predicate: `{"column": "amount", "operator": "less_than", "value": 0}`},
		{ID: 2, Name: "No Office Spend", Severity: models.SeverityHigh, TargetTable: "invoices",
			Predicate: `{"column": "category", "operator": "equals", "value": "rejected"}`},
		{ID: 3, Name: "Unattributed Invoice Detection", Severity: models.SeverityCritical, TargetTable: "invoices",
			Predicate: `{"column": "vendor_id", "operator": "absent"}`},
	}
	source := &models.DataSource{
		ID: 1, Name: "upload", Kind: models.SourceKindCSV, Locator: path, IsActive: true,
	}

	jobRepo := newFakeJobRepo()
	violationRepo := &fakeViolationRepo{}
	svc := newTestService(&fakeRuleRepo{rules: rules}, &fakeDSRepo{active: source},
		jobRepo, violationRepo, datasource.Open)

	jobID, err := svc.RequestScan()
	if err != nil {
		t.Fatalf("RequestScan failed: %v", err)
	}
	svc.Wait()

	job, err := svc.GetStatus(jobID)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if job.Status != models.ScanStatusCompleted {
		t.Errorf("Expected status completed, got %s", job.Status)
	}
	if job.Progress != 100 {
		t.Errorf("Expected progress 100, got %d", job.Progress)
	}
	if job.ViolationsFound != 2 {
		t.Errorf("Expected 2 violations found, got %d", job.ViolationsFound)
	}
	// Each of the 3 rules scans the full 10-row table.
	if job.RecordsScanned != 30 {
		t.Errorf("Expected 30 records scanned, got %d", job.RecordsScanned)
	}
	if job.EndTime == nil {
		t.Error("Expected end time on completed job")
	}
	if job.TableName != "invoices.csv" {
		t.Errorf("Expected job labeled with the uploaded file, got %q", job.TableName)
	}

	violationRepo.mu.Lock()
	defer violationRepo.mu.Unlock()
	if len(violationRepo.saved) != 2 {
		t.Fatalf("Expected 2 persisted violations, got %d", len(violationRepo.saved))
	}
	gotIDs := map[string]bool{}
	for _, v := range violationRepo.saved {
		if v.Severity != models.SeverityCritical {
			t.Errorf("Expected critical severity, got %s", v.Severity)
		}
		if v.ScanJobID != jobID {
			t.Errorf("Violation not attributed to job %d: %d", jobID, v.ScanJobID)
		}
		if v.RuleName != "Unattributed Invoice Detection" {
			t.Errorf("Unexpected rule name %s", v.RuleName)
		}
		gotIDs[v.RecordID] = true
	}
	if !gotIDs["4"] || !gotIDs["8"] {
		t.Errorf("Expected violations for records 4 and 8, got %v", gotIDs)
	}
}
