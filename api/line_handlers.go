package api

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-kwic/internal/tokenizer"
	"github.com/gcbaptista/go-kwic/services"
)

// AppendLinesRequest is the JSON body of AppendLinesHandler. Lines holds raw
// text split on spaces and tabs; Words holds lines already split into words.
type AppendLinesRequest struct {
	Lines []string   `json:"lines"`
	Words [][]string `json:"words"`
}

// WordRequest is the JSON body of the word edit handlers.
type WordRequest struct {
	Word     string `json:"word"`
	Position *int   `json:"position,omitempty"`
}

// AppendLinesHandler appends lines to an index in the loading phase. A
// text/plain body is read one physical line per line; with ?async=true it is
// loaded in a background job.
func (api *API) AppendLinesHandler(c *gin.Context) {
	accessor, indexName, ok := api.indexAccessor(c)
	if !ok {
		return
	}

	if strings.HasPrefix(c.ContentType(), "text/plain") {
		api.appendText(c, accessor, indexName)
		return
	}

	var req AppendLinesRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if len(req.Lines) > 0 && len(req.Words) > 0 {
		result := &ValidationResult{Valid: true}
		result.AddError("lines", "Provide either 'lines' or 'words', not both")
		SendValidationError(c, result)
		return
	}

	lines := req.Words
	if len(req.Lines) > 0 {
		lines = make([][]string, len(req.Lines))
		for i, text := range req.Lines {
			lines[i] = tokenizer.SplitWords(text)
		}
	}
	if len(lines) == 0 {
		result := &ValidationResult{Valid: true}
		result.AddError("lines", "No lines provided")
		SendValidationError(c, result)
		return
	}

	first, err := accessor.AppendLines(lines)
	if err != nil {
		SendEngineError(c, "append lines", err)
		return
	}
	api.persistAfterEdit(c, indexName)
	c.JSON(http.StatusOK, gin.H{
		"status":     "appended",
		"first_line": first,
		"line_count": len(lines),
	})
}

func (api *API) appendText(c *gin.Context, accessor services.IndexAccessor, indexName string) {
	async, _ := strconv.ParseBool(c.Query("async"))
	asyncEngine, isAsync := api.engine.(services.IndexManagerWithAsync)

	if async && isAsync {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			SendEngineError(c, "read request body", err)
			return
		}
		jobID, err := asyncEngine.LoadLinesAsync(indexName, "request body", data)
		if err != nil {
			SendEngineError(c, "load lines", err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Line loading started",
			"job_id":  jobID,
		})
		return
	}

	first := accessor.Info().LineCount
	n, err := accessor.ReadLines(c.Request.Context(), "request body", c.Request.Body)
	if err != nil {
		SendEngineError(c, "append lines", err)
		return
	}
	api.persistAfterEdit(c, indexName)
	c.JSON(http.StatusOK, gin.H{
		"status":     "appended",
		"first_line": first,
		"line_count": n,
	})
}

// GetLineHandler returns the words and text of one line
func (api *API) GetLineHandler(c *gin.Context) {
	accessor, _, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	line, ok := positionParam(c, "line")
	if !ok {
		return
	}

	view, err := accessor.Line(line)
	if err != nil {
		SendEngineError(c, "get line", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetWordHandler replaces one word of a line
func (api *API) SetWordHandler(c *gin.Context) {
	api.editWord(c, true, func(accessor services.IndexAccessor, line, word int, req WordRequest) error {
		return accessor.SetWord(line, word, req.Word)
	})
}

// DeleteWordHandler removes one word of a line
func (api *API) DeleteWordHandler(c *gin.Context) {
	api.editWord(c, true, func(accessor services.IndexAccessor, line, word int, _ WordRequest) error {
		return accessor.DeleteWord(line, word)
	})
}

// InsertWordHandler inserts a word at "position", or appends it when no position is given
func (api *API) InsertWordHandler(c *gin.Context) {
	api.editWord(c, false, func(accessor services.IndexAccessor, line, _ int, req WordRequest) error {
		if req.Position == nil {
			return accessor.AddWord(line, req.Word)
		}
		return accessor.InsertWord(line, *req.Position, req.Word)
	})
}

func (api *API) editWord(c *gin.Context, wordInPath bool, edit func(services.IndexAccessor, int, int, WordRequest) error) {
	accessor, indexName, ok := api.indexAccessor(c)
	if !ok {
		return
	}
	line, ok := positionParam(c, "line")
	if !ok {
		return
	}
	word := 0
	if wordInPath {
		if word, ok = positionParam(c, "word"); !ok {
			return
		}
	}

	var req WordRequest
	if c.Request.Method != http.MethodDelete {
		if result := ValidateJSONBinding(c, &req); result.HasErrors() {
			SendValidationError(c, result)
			return
		}
		if req.Position != nil && *req.Position < 0 {
			result := &ValidationResult{Valid: true}
			result.AddError("position", "position cannot be negative")
			SendValidationError(c, result)
			return
		}
	}

	if err := edit(accessor, line, word, req); err != nil {
		SendEngineError(c, "edit word", err)
		return
	}
	api.persistAfterEdit(c, indexName)

	view, err := accessor.Line(line)
	if err != nil {
		SendEngineError(c, "get line", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// persistAfterEdit saves the index after a successful change. A failure is
// logged and does not undo the in-memory edit.
func (api *API) persistAfterEdit(c *gin.Context, indexName string) {
	if err := api.engine.PersistIndexData(indexName); err != nil {
		log.Printf("Warning: failed to persist index '%s' after %s %s: %v", indexName, c.Request.Method, c.FullPath(), err)
	}
}
