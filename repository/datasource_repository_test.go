package repository

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"complianceos/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(&models.DataSource{}, &models.ScanJob{}, &models.Violation{}); err != nil {
		t.Fatalf("migrating test schema: %v", err)
	}
	return db
}

func countActive(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(models.DataSource{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		t.Fatalf("counting active sources: %v", err)
	}
	return n
}

// TestActivate_Exclusive tests that any sequence of activations leaves
// exactly one source active
func TestActivate_Exclusive(t *testing.T) {
	db := testDB(t)
	repo := &dataSourceRepository{db: db}

	a := &models.DataSource{Name: "a", Kind: models.SourceKindSQLite, Locator: "a.db"}
	b := &models.DataSource{Name: "b", Kind: models.SourceKindCSV, Locator: "b.csv"}
	c := &models.DataSource{Name: "c", Kind: models.SourceKindPostgres, Locator: "dsn://c"}
	for _, ds := range []*models.DataSource{a, b, c} {
		if err := repo.Create(nil, ds); err != nil {
			t.Fatalf("creating source %s: %v", ds.Name, err)
		}
	}

	if n := countActive(t, db); n != 0 {
		t.Fatalf("Expected no active source initially, got %d", n)
	}

	for _, id := range []uint{a.ID, b.ID, c.ID, b.ID} {
		if err := repo.Activate(nil, id); err != nil {
			t.Fatalf("activating source %d: %v", id, err)
		}
		if n := countActive(t, db); n != 1 {
			t.Errorf("Expected exactly 1 active source after activating %d, got %d", id, n)
		}
	}

	active, err := repo.GetActive(nil)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active.ID != b.ID {
		t.Errorf("Expected source %d active after final activation, got %d", b.ID, active.ID)
	}
}

// TestActivate_UnknownID tests the not-found path without touching the
// existing active flag
func TestActivate_UnknownID(t *testing.T) {
	db := testDB(t)
	repo := &dataSourceRepository{db: db}

	a := &models.DataSource{Name: "a", Kind: models.SourceKindSQLite, Locator: "a.db"}
	if err := repo.Create(nil, a); err != nil {
		t.Fatalf("creating source: %v", err)
	}
	if err := repo.Activate(nil, a.ID); err != nil {
		t.Fatalf("activating source: %v", err)
	}

	if err := repo.Activate(nil, 999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
	if n := countActive(t, db); n != 1 {
		t.Errorf("Expected failed activation to leave 1 active source, got %d", n)
	}
}
