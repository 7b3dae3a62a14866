package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"complianceos/bootstrap"
	"complianceos/config"
	"complianceos/controllers"
	_ "complianceos/docs"
	"complianceos/pkg/logger"
	"complianceos/services"
	"complianceos/services/scan"
	"complianceos/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           complianceos
// @version         1.0
// @description     Compliance scan engine API

// @BasePath  /api/v1

func main() {
	// 1) Load config
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("LoadConfig error: %v", err)
	}

	// 2) Connect DB (GORM)
	if err := config.ConnectDB(); err != nil {
		log.Fatalf("ConnectDB error: %v", err)
	}
	if config.DB == nil {
		log.Fatal("Database is nil after ConnectDB")
	}

	// 3) Init structured logger with config
	logLevel := logger.ParseLogLevel(config.Cfg.LogLevel)
	logger.InitWithConfig(
		config.Cfg.LogFile,
		logLevel,
		config.Cfg.LogMaxSize,
		config.Cfg.LogMaxBackups,
		config.Cfg.LogMaxAge,
		config.Cfg.LogCompress,
	)
	logger.Infof("Starting compliance scan engine with log level: %s", config.Cfg.LogLevel)

	if err := bootstrap.Migrate(); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	scanSrv := scan.NewService()
	controllers.SetScanService(scanSrv)
	controllers.SetViolationService(services.NewViolationService())
	controllers.SetPolicyService(services.NewPolicyService())
	controllers.SetDataSourceService(services.NewDataSourceService())
	controllers.SetStatsService(services.NewStatsService())

	// 4) Setup Gin
	router := gin.Default()
	router.Use(utils.LoggerMiddleware())

	v1 := router.Group("/api/v1")
	{
		controllers.RegisterScanRoutes(v1)
		controllers.RegisterViolationRoutes(v1)
		controllers.RegisterPolicyRoutes(v1)
		controllers.RegisterDataSourceRoutes(v1)
		controllers.RegisterStatsRoutes(v1)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// 5) Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 6) Graceful shutdown: let a running scan reach a terminal state first
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Infof("Received shutdown signal, waiting for running scan to finish...")
		scanSrv.Wait()
		logger.Infof("Application shutdown complete")
		os.Exit(0)
	}()

	// 7) Run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	logger.Infof("Starting server at port %s", port)
	router.Run("0.0.0.0:" + port)
}
