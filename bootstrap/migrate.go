package bootstrap

import (
	"fmt"
	"os"

	"complianceos/config"
	"complianceos/models"
	"complianceos/pkg/logger"
)

// Migrate creates or updates the application schema and prepares the upload
// directory. Called once at startup before any service is wired.
func Migrate() error {
	logger.Infof("Starting schema migration...")

	if err := config.DB.AutoMigrate(
		&models.Policy{},
		&models.Rule{},
		&models.DataSource{},
		&models.ScanJob{},
		&models.Violation{},
	); err != nil {
		logger.Errorf("Schema migration failed: %v", err)
		return fmt.Errorf("schema migration failed: %w", err)
	}

	if err := os.MkdirAll(config.Cfg.UploadDir, 0755); err != nil {
		logger.Errorf("Failed to create upload directory %q: %v", config.Cfg.UploadDir, err)
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	logger.Infof("Schema migration completed successfully")
	return nil
}
