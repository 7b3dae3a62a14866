package config

import (
	"fmt"

	"complianceos/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB is the global GORM database instance used throughout the application.
var DB *gorm.DB

// ConnectDB establishes the application database connection using GORM.
// The driver is selected by APP_DB_DRIVER: sqlite (default, single-file) or mysql.
func ConnectDB() error {
	var (
		db  *gorm.DB
		err error
	)

	switch Cfg.AppDBDriver {
	case "mysql":
		logger.Infof("Connecting to application database %s@%s:%d/%s", Cfg.DBUser, Cfg.DBHost, Cfg.DBPort, Cfg.DBName)
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			Cfg.DBUser,
			Cfg.DBPass,
			Cfg.DBHost,
			Cfg.DBPort,
			Cfg.DBName,
		)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		logger.Infof("Connecting to application database file %s", Cfg.AppDBPath)
		db, err = gorm.Open(sqlite.Open(Cfg.AppDBPath), &gorm.Config{})
	default:
		return fmt.Errorf("unsupported application database driver: %s", Cfg.AppDBDriver)
	}

	if err != nil {
		logger.Errorf("GORM connection failed: %v", err)
		return err
	}
	logger.Infof("GORM connected successfully (%s)", Cfg.AppDBDriver)

	DB = db
	return nil
}
