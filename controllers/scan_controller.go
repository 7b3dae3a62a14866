package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"complianceos/pkg/logger"
	"complianceos/services/scan"
	"complianceos/utils"

	"github.com/gin-gonic/gin"
)

var scanSrv scan.Service

// SetScanService initializes the scan orchestrator service instance.
func SetScanService(srv scan.Service) {
	scanSrv = srv
}

// TriggerScan starts a compliance scan
// @Summary Trigger a compliance scan
// @Description Validates preconditions, queues a scan job and returns its id immediately. The scan runs in the background; poll GET /scans/{job_id} for progress.
// @Tags Scans
// @Accept json
// @Produce json
// @Success 202 {object} ScanStartResponse "Scan queued with job id"
// @Failure 400 {object} DetailErrorResponse "No rules or no active data source"
// @Failure 409 {object} DetailErrorResponse "Another scan is already running"
// @Router /api/v1/scans [post]
func triggerScan(c *gin.Context) {
	jobID, err := scanSrv.RequestScan()
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrScanAlreadyRunning):
			utils.ErrorResponseWithStatus(c, http.StatusConflict, err)
		case errors.Is(err, scan.ErrNoRulesAvailable), errors.Is(err, scan.ErrNoActiveDataSource):
			utils.ErrorResponse(c, err)
		default:
			logger.Errorf("Scan request failed: %v", err)
			utils.ErrorResponse(c, err)
		}
		return
	}
	utils.JSONResponse(c, http.StatusAccepted, gin.H{
		"message": "Scan triggered successfully",
		"job_id":  jobID,
	})
}

// ListScans returns scan job history
// @Summary List scan jobs
// @Description Returns all scan jobs, newest first
// @Tags Scans
// @Produce json
// @Success 200 {array} models.ScanJob
// @Router /api/v1/scans [get]
func listScans(c *gin.Context) {
	jobs, err := scanSrv.ListJobs()
	if err != nil {
		logger.Errorf("Failed to list scan jobs: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, jobs)
}

// GetScanStatus returns one scan job snapshot
// @Summary Get scan job status
// @Description Returns the latest snapshot of a scan job; safe to poll while the scan runs
// @Tags Scans
// @Produce json
// @Param job_id path int true "Scan job ID"
// @Success 200 {object} models.ScanJob
// @Failure 404 {object} DetailErrorResponse "Unknown job id"
// @Router /api/v1/scans/{job_id} [get]
func getScanStatus(c *gin.Context) {
	jobID, err := strconv.Atoi(c.Param("job_id"))
	if err != nil || jobID < 1 {
		utils.ErrorResponse(c, fmt.Errorf("invalid job id"))
		return
	}

	job, err := scanSrv.GetStatus(utils.MustIntToUint(jobID))
	if err != nil {
		if errors.Is(err, scan.ErrJobNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Failed to get scan job %d: %v", jobID, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, job)
}

// RegisterScanRoutes wires scan endpoints onto the router group.
func RegisterScanRoutes(rg *gin.RouterGroup) {
	rg.POST("/scans", triggerScan)
	rg.GET("/scans", listScans)
	rg.GET("/scans/:job_id", getScanStatus)
}
