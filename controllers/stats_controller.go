package controllers

import (
	"net/http"

	"complianceos/pkg/logger"
	"complianceos/services"
	"complianceos/utils"

	"github.com/gin-gonic/gin"
)

var statsSrv services.StatsService

// SetStatsService initializes the stats service instance.
func SetStatsService(srv services.StatsService) {
	statsSrv = srv
}

// GetStats returns dashboard counters
// @Summary Get dashboard statistics
// @Description Returns policy, rule and violation counts plus the derived health score
// @Tags Stats
// @Produce json
// @Success 200 {object} services.Stats
// @Router /api/v1/stats [get]
func getStats(c *gin.Context) {
	stats, err := statsSrv.GetStats()
	if err != nil {
		logger.Errorf("Failed to compute stats: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, stats)
}

// RegisterStatsRoutes wires stats endpoints onto the router group.
func RegisterStatsRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", getStats)
}
