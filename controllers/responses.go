package controllers

import "complianceos/services"

// DetailErrorResponse is the standard error body.
type DetailErrorResponse struct {
	Detail string `json:"detail"`
}

// ScanStartResponse is returned when a scan is queued.
type ScanStartResponse struct {
	Message string `json:"message"`
	JobID   uint   `json:"job_id"`
}

// ViolationListResponse is the paginated violation listing body.
type ViolationListResponse struct {
	Violations []services.ViolationView `json:"violations"`
	Total      int64                    `json:"total"`
	Limit      int                      `json:"limit"`
	Offset     int                      `json:"offset"`
}

// RuleExtractionResponse reports how many rules a policy produced.
type RuleExtractionResponse struct {
	Message    string `json:"message"`
	RulesAdded int    `json:"rules_added"`
}
