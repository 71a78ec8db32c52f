package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetRankingHandler returns a page of resolved ranking entries
func (api *API) GetRankingHandler(c *gin.Context) {
	accessor, _, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	page, pageSize, result := ValidatePagination(c.Query("page"), c.Query("page_size"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	ranking, err := accessor.Page(page, pageSize)
	if err != nil {
		SendEngineError(c, "get ranking", err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// GetRankingEntryHandler returns the shift at one rank
func (api *API) GetRankingEntryHandler(c *gin.Context) {
	accessor, _, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	rank, ok := positionParam(c, "rank")
	if !ok {
		return
	}

	entry, err := accessor.Entry(rank)
	if err != nil {
		SendEngineError(c, "get ranking entry", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// GetRankingTextHandler streams the whole ranking as plain text, one shift per line
func (api *API) GetRankingTextHandler(c *gin.Context) {
	accessor, indexName, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	// fail with a JSON error before any text is written
	if _, err := accessor.RankCount(); err != nil {
		SendEngineError(c, "render ranking", err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := accessor.WriteRanking(c.Request.Context(), c.Writer); err != nil {
		log.Printf("Warning: rendering ranking of index '%s' stopped: %v", indexName, err)
	}
}
