package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds application configuration loaded from environment variables and .env file.
type AppConfig struct {
	// Application database config (where policies, rules, jobs and violations live)
	AppDBDriver string // "sqlite" or "mysql"
	AppDBPath   string // sqlite file path
	DBHost      string
	DBPort      int
	DBUser      string
	DBPass      string
	DBName      string

	// Logging config
	LogLevel      string
	LogFile       string
	LogMaxSize    int // MB
	LogMaxBackups int
	LogMaxAge     int // days
	LogCompress   bool

	// Upload directory for policy documents and CSV data sources
	UploadDir string

	// Scan engine config
	ScanRuleRetries    int           // Retry attempts per rule on source errors
	ScanRetryBaseDelay time.Duration // Base delay between per-rule retries
	SourceOpTimeout    time.Duration // Timeout for a single data source operation
	ViolationBatchSize int           // Violations persisted per bulk insert
}

// Cfg is the global application configuration instance.
var Cfg AppConfig

// LoadConfig loads application configuration from .env file and environment variables.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		// Use standard log here since logger is not initialized yet
		log.Printf("[WARN] .env file not found or cannot be loaded: %v", err)
	} else {
		log.Printf("[INFO] .env file loaded successfully")
	}

	Cfg.AppDBDriver = strings.ToLower(getEnv("APP_DB_DRIVER", "sqlite"))
	Cfg.AppDBPath = getEnv("APP_DB_PATH", "complianceos.db")
	Cfg.DBHost = getEnv("DB_HOST", "127.0.0.1")
	Cfg.DBUser = getEnv("DB_USER", "root")
	Cfg.DBPass = getEnv("DB_PASS", "")
	Cfg.DBName = getEnv("DB_NAME", "complianceos")
	Cfg.DBPort = getEnvInt("DB_PORT", 3306)

	Cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")
	Cfg.LogFile = getEnv("LOG_FILE", "logs/complianceos.log")
	Cfg.LogMaxSize = getEnvInt("LOG_MAX_SIZE", 10)
	Cfg.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)
	Cfg.LogMaxAge = getEnvInt("LOG_MAX_AGE", 28)
	Cfg.LogCompress = getEnvBool("LOG_COMPRESS", true)

	Cfg.UploadDir = getEnv("UPLOAD_DIR", "uploads")

	Cfg.ScanRuleRetries = getEnvInt("SCAN_RULE_RETRIES", 2)
	Cfg.ScanRetryBaseDelay = time.Duration(getEnvInt("SCAN_RETRY_BASE_DELAY", 1)) * time.Second
	Cfg.SourceOpTimeout = time.Duration(getEnvInt("SOURCE_OP_TIMEOUT", 30)) * time.Second
	Cfg.ViolationBatchSize = getEnvInt("VIOLATION_BATCH_SIZE", 1000)

	log.Printf("[INFO] Config loaded - AppDB: %s, LogLevel: %s, UploadDir: %s",
		Cfg.AppDBDriver, Cfg.LogLevel, Cfg.UploadDir)
	log.Printf("[INFO] Scan config - RuleRetries: %d, RetryBaseDelay: %v, SourceOpTimeout: %v",
		Cfg.ScanRuleRetries, Cfg.ScanRetryBaseDelay, Cfg.SourceOpTimeout)

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}
