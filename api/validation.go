// Package api provides validation utilities for API request handling.
package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-kwic/config"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateIndexName validates an index name parameter
func ValidateIndexName(indexName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if indexName == "" {
		result.AddError("indexName", "Index name is required")
		return result
	}

	if strings.TrimSpace(indexName) != indexName {
		result.AddError("indexName", "Index name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateIndexSettings validates index settings for creation
func ValidateIndexSettings(settings *config.IndexSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Index settings are required")
		return result
	}

	for _, problem := range settings.Validate() {
		result.AddError("settings", problem)
	}
	return result
}

// ValidatePagination applies defaults to page and pageSize and rejects values
// that cannot be served.
func ValidatePagination(pageParam, pageSizeParam string) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	page, pageSize := 1, defaultPageSize
	if pageParam != "" {
		n, err := strconv.Atoi(pageParam)
		if err != nil || n < 1 {
			result.AddError("page", "Page number must be an integer greater than 0")
		} else {
			page = n
		}
	}
	if pageSizeParam != "" {
		n, err := strconv.Atoi(pageSizeParam)
		if err != nil || n < 1 {
			result.AddError("page_size", "Page size must be an integer greater than 0")
		} else {
			pageSize = min(n, maxPageSize)
		}
	}

	return page, pageSize, result
}

// ValidatePosition parses a line, word or rank path parameter. Negative and
// non-numeric values are rejected here; upper bounds are checked by the index.
func ValidatePosition(field, value string) (int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	n, err := strconv.Atoi(value)
	if err != nil {
		result.AddError(field, field+" must be an integer")
		return 0, result
	}
	if n < 0 {
		result.AddError(field, field+" cannot be negative")
	}
	return n, result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
