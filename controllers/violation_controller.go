package controllers

import (
	"net/http"
	"strconv"

	"complianceos/pkg/logger"
	"complianceos/repository"
	"complianceos/services"
	"complianceos/utils"

	"github.com/gin-gonic/gin"
)

var violationSrv services.ViolationService

// SetViolationService initializes the violation service instance.
func SetViolationService(srv services.ViolationService) {
	violationSrv = srv
}

// ListViolations returns recorded violations
// @Summary List violations
// @Description Returns violations most-recent-detected first, with optional severity and scan job filters
// @Tags Violations
// @Produce json
// @Param limit query int false "Page size (default 100)"
// @Param offset query int false "Page offset"
// @Param severity query string false "Filter by severity"
// @Param scan_job_id query int false "Filter by scan job"
// @Success 200 {object} ViolationListResponse
// @Router /api/v1/violations [get]
func listViolations(c *gin.Context) {
	filter := repository.ViolationFilter{
		Limit:    100,
		Severity: c.Query("severity"),
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil && v > 0 {
		filter.Offset = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("scan_job_id", "0")); err == nil && v > 0 {
		filter.ScanJobID = utils.MustIntToUint(v)
	}

	views, total, err := violationSrv.List(filter)
	if err != nil {
		logger.Errorf("Failed to list violations: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"violations": views,
		"total":      total,
		"limit":      filter.Limit,
		"offset":     filter.Offset,
	})
}

// ExportViolations streams all violations as CSV
// @Summary Export violations as CSV
// @Description Streams every recorded violation as a CSV attachment
// @Tags Violations
// @Produce text/csv
// @Success 200 {string} string "CSV byte stream"
// @Router /api/v1/violations/export [get]
func exportViolations(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=compliance_violations.csv")
	if err := violationSrv.ExportCSV(c.Writer); err != nil {
		// Headers may already be sent; log and abort the stream.
		logger.Errorf("Violation CSV export failed: %v", err)
		c.Abort()
	}
}

// RegisterViolationRoutes wires violation endpoints onto the router group.
func RegisterViolationRoutes(rg *gin.RouterGroup) {
	rg.GET("/violations", listViolations)
	rg.GET("/violations/export", exportViolations)
}
