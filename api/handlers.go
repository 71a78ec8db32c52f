package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-kwic/services"
)

// API holds dependencies for API handlers, primarily the KWIC engine.
type API struct {
	engine services.IndexManager
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager) *API {
	return &API{engine: engine}
}

// SetupRoutes defines all the API routes for the KWIC service.
func SetupRoutes(router *gin.Engine, engine services.IndexManager) {
	apiHandler := NewAPI(engine)

	router.GET("/health", apiHandler.HealthCheckHandler)

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler)
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
		jobRoutes.POST("/:jobId/_cancel", apiHandler.CancelJobHandler)
	}

	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.POST("", apiHandler.CreateIndexHandler)
		indexRoutes.GET("", apiHandler.ListIndexesHandler)
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler)
		indexRoutes.GET("/:indexName/jobs", apiHandler.ListJobsHandler)

		// Loading phase
		indexRoutes.POST("/:indexName/lines", apiHandler.AppendLinesHandler)
		indexRoutes.GET("/:indexName/lines/:line", apiHandler.GetLineHandler)
		indexRoutes.POST("/:indexName/lines/:line/words", apiHandler.InsertWordHandler)
		indexRoutes.PUT("/:indexName/lines/:line/words/:word", apiHandler.SetWordHandler)
		indexRoutes.DELETE("/:indexName/lines/:line/words/:word", apiHandler.DeleteWordHandler)

		// Phase transitions
		indexRoutes.POST("/:indexName/_build", apiHandler.BuildIndexHandler)
		indexRoutes.POST("/:indexName/_reset", apiHandler.ResetIndexHandler)

		// Queryable phase
		indexRoutes.GET("/:indexName/ranking", apiHandler.GetRankingHandler)
		indexRoutes.GET("/:indexName/ranking.txt", apiHandler.GetRankingTextHandler)
		indexRoutes.GET("/:indexName/ranking/:rank", apiHandler.GetRankingEntryHandler)
	}
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-kwic",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		"indexes":   len(api.engine.ListIndexes()),
	})
}

// indexAccessor resolves the :indexName parameter, sending the error response
// itself when the name is invalid or unknown.
func (api *API) indexAccessor(c *gin.Context) (services.IndexAccessor, string, bool) {
	indexName := c.Param("indexName")
	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return nil, indexName, false
	}

	accessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendEngineError(c, "get index", err)
		return nil, indexName, false
	}
	return accessor, indexName, true
}

// positionParam parses a non-negative integer path parameter.
func positionParam(c *gin.Context, name string) (int, bool) {
	n, result := ValidatePosition(name, c.Param(name))
	if result.HasErrors() {
		SendValidationError(c, result)
		return 0, false
	}
	return n, true
}
