package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"complianceos/pkg/logger"
	"complianceos/services"
	"complianceos/utils"

	"github.com/gin-gonic/gin"
)

var policySrv services.PolicyService

// SetPolicyService initializes the policy service instance.
func SetPolicyService(srv services.PolicyService) {
	policySrv = srv
}

// UploadPolicy stores a policy document
// @Summary Upload a policy document
// @Description Stores the uploaded policy document and records it for rule extraction
// @Tags Policies
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Policy document"
// @Success 200 {object} models.Policy
// @Failure 400 {object} DetailErrorResponse
// @Router /api/v1/policies [post]
func uploadPolicy(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.ErrorResponse(c, fmt.Errorf("no file provided"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.ErrorResponse(c, fmt.Errorf("failed to read uploaded file"))
		return
	}
	defer src.Close()

	policy, err := policySrv.Upload(fileHeader.Filename, src)
	if err != nil {
		logger.Errorf("Policy upload failed: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, policy)
}

// ExtractPolicyRules runs rule extraction for a policy
// @Summary Extract rules from a policy
// @Description Attaches the extracted rule set to the policy and reports how many rules were added
// @Tags Policies
// @Produce json
// @Param policy_id path int true "Policy ID"
// @Success 200 {object} RuleExtractionResponse
// @Failure 404 {object} DetailErrorResponse "Unknown policy id"
// @Router /api/v1/policies/{policy_id}/extract [post]
func extractPolicyRules(c *gin.Context) {
	policyID, err := strconv.Atoi(c.Param("policy_id"))
	if err != nil || policyID < 1 {
		utils.ErrorResponse(c, fmt.Errorf("invalid policy id"))
		return
	}

	added, err := policySrv.ExtractRules(utils.MustIntToUint(policyID))
	if err != nil {
		if errors.Is(err, services.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Rule extraction failed for policy %d: %v", policyID, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{
		"message":     "Rules extracted successfully",
		"rules_added": added,
	})
}

// ListRules returns all extracted rules
// @Summary List rules
// @Description Returns every extracted rule across all policies
// @Tags Policies
// @Produce json
// @Success 200 {array} models.Rule
// @Router /api/v1/policies/rules [get]
func listRules(c *gin.Context) {
	rules, err := policySrv.ListRules()
	if err != nil {
		logger.Errorf("Failed to list rules: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, rules)
}

// GetLatestPolicy returns the most recently uploaded policy
// @Summary Get the latest policy
// @Tags Policies
// @Produce json
// @Success 200 {object} models.Policy
// @Failure 404 {object} DetailErrorResponse "No policy uploaded yet"
// @Router /api/v1/policies/latest [get]
func getLatestPolicy(c *gin.Context) {
	policy, err := policySrv.GetLatest()
	if err != nil {
		if errors.Is(err, services.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Failed to fetch latest policy: %v", err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, policy)
}

// DeletePolicy removes a policy and its rules
// @Summary Delete a policy
// @Description Removes the policy and every rule extracted from it
// @Tags Policies
// @Produce json
// @Param policy_id path int true "Policy ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} DetailErrorResponse "Unknown policy id"
// @Router /api/v1/policies/{policy_id} [delete]
func deletePolicy(c *gin.Context) {
	policyID, err := strconv.Atoi(c.Param("policy_id"))
	if err != nil || policyID < 1 {
		utils.ErrorResponse(c, fmt.Errorf("invalid policy id"))
		return
	}

	if err := policySrv.Delete(utils.MustIntToUint(policyID)); err != nil {
		if errors.Is(err, services.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Failed to delete policy %d: %v", policyID, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, gin.H{"message": "Policy deleted successfully"})
}

// ListPolicyRules returns the rules extracted from one policy
// @Summary List one policy's rules
// @Tags Policies
// @Produce json
// @Param policy_id path int true "Policy ID"
// @Success 200 {array} models.Rule
// @Failure 404 {object} DetailErrorResponse "Unknown policy id"
// @Router /api/v1/policies/{policy_id}/rules [get]
func listPolicyRules(c *gin.Context) {
	policyID, err := strconv.Atoi(c.Param("policy_id"))
	if err != nil || policyID < 1 {
		utils.ErrorResponse(c, fmt.Errorf("invalid policy id"))
		return
	}

	rules, err := policySrv.ListRulesByPolicy(utils.MustIntToUint(policyID))
	if err != nil {
		if errors.Is(err, services.ErrPolicyNotFound) {
			utils.ErrorResponseWithStatus(c, http.StatusNotFound, err)
			return
		}
		logger.Errorf("Failed to list rules for policy %d: %v", policyID, err)
		utils.ErrorResponse(c, err)
		return
	}
	utils.JSONResponse(c, http.StatusOK, rules)
}

// RegisterPolicyRoutes wires policy endpoints onto the router group.
func RegisterPolicyRoutes(rg *gin.RouterGroup) {
	rg.POST("/policies", uploadPolicy)
	rg.POST("/policies/:policy_id/extract", extractPolicyRules)
	rg.GET("/policies/rules", listRules)
	rg.GET("/policies/latest", getLatestPolicy)
	rg.GET("/policies/:policy_id/rules", listPolicyRules)
	rg.DELETE("/policies/:policy_id", deletePolicy)
}
