package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/services"
)

// CreateIndexHandler handles requests to create a new, empty index
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexSettings
	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateIndexSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.CreateIndex(settings); err != nil {
		SendEngineError(c, "create index", err)
		return
	}

	created, err := api.engine.GetIndexSettings(settings.Name)
	if err != nil {
		SendEngineError(c, "create index", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":   "created",
		"message":  "Index '" + settings.Name + "' created",
		"settings": created,
	})
}

// ListIndexesHandler lists every index with its summary
func (api *API) ListIndexesHandler(c *gin.Context) {
	names := api.engine.ListIndexes()
	indexes := make([]services.IndexInfo, 0, len(names))
	for _, name := range names {
		accessor, err := api.engine.GetIndex(name)
		if err != nil {
			// deleted between listing and lookup
			continue
		}
		indexes = append(indexes, accessor.Info())
	}
	c.JSON(http.StatusOK, gin.H{
		"indexes": indexes,
		"total":   len(indexes),
	})
}

// GetIndexHandler returns the settings, phase and counts of one index
func (api *API) GetIndexHandler(c *gin.Context) {
	accessor, _, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, accessor.Info())
}

// DeleteIndexHandler deletes an index, in a background job when the engine supports it
func (api *API) DeleteIndexHandler(c *gin.Context) {
	_, indexName, ok := api.indexAccessor(c)
	if !ok {
		return
	}

	if asyncEngine, isAsync := api.engine.(services.IndexManagerWithAsync); isAsync {
		jobID, err := asyncEngine.DeleteIndexAsync(indexName)
		if err != nil {
			SendEngineError(c, "delete index", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Index deletion started",
			"job_id":  jobID,
		})
		return
	}

	if err := api.engine.DeleteIndex(indexName); err != nil {
		SendEngineError(c, "delete index", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "message": "Index '" + indexName + "' deleted"})
}

// BuildIndexHandler ranks every circular shift of the index. By default the
// build runs as a background job; ?wait=true builds within the request.
func (api *API) BuildIndexHandler(c *gin.Context) {
	_, indexName, ok := api.indexAccessor(c)
	if !ok {
		return
	}

	wait := false
	if raw := c.Query("wait"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			result := &ValidationResult{Valid: true}
			result.AddError("wait", "wait must be a boolean")
			SendValidationError(c, result)
			return
		}
		wait = parsed
	}

	asyncEngine, isAsync := api.engine.(services.IndexManagerWithAsync)
	if !wait && isAsync {
		jobID, err := asyncEngine.BuildIndexAsync(indexName)
		if err != nil {
			SendEngineError(c, "build index", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Index build started",
			"job_id":  jobID,
		})
		return
	}

	if err := api.engine.BuildIndex(c.Request.Context(), indexName); err != nil {
		SendEngineError(c, "build index", err)
		return
	}
	accessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendEngineError(c, "build index", err)
		return
	}
	c.JSON(http.StatusOK, accessor.Info())
}

// ResetIndexHandler discards the line store and ranking and returns the index to loading
func (api *API) ResetIndexHandler(c *gin.Context) {
	accessor, indexName, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	if err := api.engine.ResetIndex(indexName); err != nil {
		SendEngineError(c, "reset index", err)
		return
	}
	c.JSON(http.StatusOK, accessor.Info())
}
