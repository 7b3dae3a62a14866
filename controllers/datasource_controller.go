package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"complianceos/models"
	"complianceos/pkg/logger"
	"complianceos/services"
	"complianceos/utils"

	"github.com/gin-gonic/gin"
)

var dataSourceSrv services.DataSourceService

// SetDataSourceService initializes the data source service instance.
func SetDataSourceService(srv services.DataSourceService) {
	dataSourceSrv = srv
}

// CreateDataSourceRequest is the registration payload for a database source.
type CreateDataSourceRequest struct {
	Name    string `json:"name" binding:"required" validate:"required,min=1,max=255"`
	Kind    string `json:"kind" binding:"required" validate:"required,oneof=postgres mysql sqlite csv"`
	Locator string `json:"locator" binding:"required" validate:"required,min=1"`
}

// CreateDataSource registers a target database connection
// @Summary Register a data source
// @Description Registers a scan target. New sources start inactive; activate one explicitly before scanning.
// @Tags DataSources
// @Accept json
// @Produce json
// @Param request body CreateDataSourceRequest true "Data source details"
// @Success 200 {object} models.DataSource
// @Failure 400 {object} DetailErrorResponse
// @Router /api/v1/databases [post]
func createDataSource(c *gin.Context) {
	var req CreateDataSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(c, err)
		return
	}

	ds := &models.DataSource{
		Name:    req.Name,
		Kind:    req.Kind,
		Locator: req.Locator,
	}
	if err := dataSourceSrv.Create(ds); err != nil {
		logger.Errorf("Failed to create data source: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, ds)
}

// ListDataSources lists registered data sources
// @Summary List data sources
// @Tags DataSources
// @Produce json
// @Success 200 {array} models.DataSource
// @Router /api/v1/databases [get]
func listDataSources(c *gin.Context) {
	sources, err := dataSourceSrv.List()
	if err != nil {
		logger.Errorf("Failed to list data sources: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, sources)
}

// UploadCSVSource registers an uploaded CSV file as a data source
// @Summary Upload a CSV data source
// @Description Stores the CSV file and registers it as a scannable source. The ingested table is named after the file.
// @Tags DataSources
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param name formData string false "Display name (defaults to the file name)"
// @Success 200 {object} models.DataSource
// @Failure 400 {object} DetailErrorResponse
// @Router /api/v1/databases/upload_csv [post]
func uploadCSVSource(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, fmt.Errorf("no file provided"))
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, fmt.Errorf("failed to read uploaded file"))
		return
	}
	defer src.Close()

	ds, err := dataSourceSrv.UploadCSV(name, fileHeader.Filename, src)
	if err != nil {
		logger.Errorf("CSV upload failed: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, ds)
}

// ActivateDataSource makes one data source the scan target
// @Summary Activate a data source
// @Description Marks the source active and deactivates every other source
// @Tags DataSources
// @Produce json
// @Param id path int true "Data source ID"
// @Success 200 {object} models.DataSource
// @Failure 404 {object} DetailErrorResponse "Unknown data source id"
// @Router /api/v1/databases/{id}/activate [patch]
func activateDataSource(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		utils.ErrorResponse(c, fmt.Errorf("invalid data source id"))
		return
	}

	ds, err := dataSourceSrv.Activate(utils.MustIntToUint(id))
	if err != nil {
		if errors.Is(err, services.ErrDataSourceNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Failed to activate data source %d: %v", id, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, ds)
}

// DeleteDataSource removes a registered data source
// @Summary Delete a data source
// @Tags DataSources
// @Produce json
// @Param id path int true "Data source ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} DetailErrorResponse "Unknown data source id"
// @Router /api/v1/databases/{id} [delete]
func deleteDataSource(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		utils.ErrorResponse(c, fmt.Errorf("invalid data source id"))
		return
	}

	if err := dataSourceSrv.Delete(utils.MustIntToUint(id)); err != nil {
		if errors.Is(err, services.ErrDataSourceNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Failed to delete data source %d: %v", id, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "Data source deleted successfully"})
}

// RegisterDataSourceRoutes wires data source endpoints onto the router group.
func RegisterDataSourceRoutes(rg *gin.RouterGroup) {
	rg.POST("/databases", createDataSource)
	rg.GET("/databases", listDataSources)
	rg.POST("/databases/upload_csv", uploadCSVSource)
	rg.PATCH("/databases/:id/activate", activateDataSource)
	rg.DELETE("/databases/:id", deleteDataSource)
}
