package services

import (
	"context"
	"io"
	"time"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/internal/jobs"
	"github.com/gcbaptista/go-kwic/model"
)

// IndexInfo summarizes one KWIC index.
type IndexInfo struct {
	Settings  config.IndexSettings `json:"settings"`
	Phase     model.Phase          `json:"phase"`
	LineCount int                  `json:"line_count"`
	WordCount int                  `json:"word_count"`
	RankCount int                  `json:"rank_count"`
	BuildID   string               `json:"build_id,omitempty"`
	BuiltAt   *time.Time           `json:"built_at,omitempty"`
}

// LineView is one stored line.
type LineView struct {
	Line  int      `json:"line"`
	Words []string `json:"words"`
	Text  string   `json:"text"`
}

// RankingPage is a page of resolved ranking entries.
type RankingPage struct {
	Entries  []model.RankedEntry `json:"entries"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// Loader defines the operations that populate a line store. They are only
// allowed while the index is loading.
type Loader interface {
	AppendLines(lines [][]string) (int, error)
	ReadLines(ctx context.Context, source string, r io.Reader) (int, error)
	SetWord(line, word int, value string) error
	InsertWord(line, word int, value string) error
	AddWord(line int, value string) error
	DeleteWord(line, word int) error
}

// Querier defines read operations over a built ranking.
type Querier interface {
	RankCount() (int, error)
	Entry(rank int) (model.RankedEntry, error)
	Page(page, pageSize int) (RankingPage, error)
	WriteRanking(ctx context.Context, w io.Writer) (int, error)
}

// IndexAccessor combines Loader and Querier for one index.
type IndexAccessor interface {
	Loader
	Querier
	Settings() config.IndexSettings
	Phase() model.Phase
	Info() IndexInfo
	Line(line int) (LineView, error)
}

// IndexManager manages the lifecycle of indexes
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error)
	GetIndexSettings(name string) (config.IndexSettings, error)
	DeleteIndex(name string) error
	ListIndexes() []string
	BuildIndex(ctx context.Context, name string) error
	ResetIndex(name string) error
	PersistIndexData(indexName string) error
}

// IndexManagerWithAsync extends IndexManager with background builds and deletes
type IndexManagerWithAsync interface {
	IndexManager
	BuildIndexAsync(name string) (string, error) // Returns job ID
	DeleteIndexAsync(name string) (string, error)
	LoadLinesAsync(name, source string, data []byte) (string, error)
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(indexName string, status *model.JobStatus) []*model.Job
	CancelJob(jobID string) error
	WaitForJob(ctx context.Context, jobID string) (*model.Job, error)
	GetMetrics() jobs.JobMetricsData
	GetCurrentWorkload() int64
}
