// Package testing provides utilities and helpers for testing the KWIC engine.
package testing

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/internal/engine"
	"github.com/gcbaptista/go-kwic/model"
	"github.com/gcbaptista/go-kwic/services"
)

// SampleCorpus is a small corpus with a known ranking, see SampleRanking.
var SampleCorpus = []string{
	"Descriptive notation, in",
	"expressions for",
}

// SampleRanking is the rendered ranking of SampleCorpus.
var SampleRanking = []string{
	"Descriptive notation, in",
	"expressions for",
	"for expressions",
	"in Descriptive notation,",
	"notation, in Descriptive",
}

// CreateTestEngine creates an engine backed by a temporary directory. The
// engine is closed when the test ends.
func CreateTestEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	eng := engine.NewEngine(t.TempDir(), opts...)
	t.Cleanup(eng.Close)
	return eng
}

// CreateTestIndex creates a test index with default settings
func CreateTestIndex(t *testing.T, eng *engine.Engine, indexName string) config.IndexSettings {
	t.Helper()
	settings := config.IndexSettings{
		Name:               indexName,
		Description:        "test index",
		Parallelism:        2,
		MinShiftsPerWorker: 1,
	}

	err := eng.CreateIndex(settings)
	require.NoError(t, err, "Failed to create test index")

	return settings
}

// LoadTestLines appends lines, given as raw text, to an index in the loading phase
func LoadTestLines(t *testing.T, eng *engine.Engine, indexName string, lines []string) {
	t.Helper()
	indexAccessor, err := eng.GetIndex(indexName)
	require.NoError(t, err, "Failed to get index accessor")

	n, err := indexAccessor.ReadLines(t.Context(), "test", strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err, "Failed to load test lines")
	require.Equal(t, len(lines), n)
}

// CreateQueryableIndex creates an index holding lines and builds it
func CreateQueryableIndex(t *testing.T, eng *engine.Engine, indexName string, lines []string) services.IndexAccessor {
	t.Helper()
	CreateTestIndex(t, eng, indexName)
	LoadTestLines(t, eng, indexName, lines)
	require.NoError(t, eng.BuildIndex(t.Context(), indexName), "Failed to build test index")

	indexAccessor, err := eng.GetIndex(indexName)
	require.NoError(t, err)
	require.Equal(t, model.PhaseQueryable, indexAccessor.Phase())
	return indexAccessor
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 20 * time.Millisecond,
		LogProgress:  true,
	}
}

// WaitForJobCompletion polls a job until it reaches a terminal status or times out
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			if job.IsTerminal() {
				if opts.LogProgress && job.CompletedAt != nil {
					t.Logf("Job %s finished as %s in %v", jobID, job.Status, job.CompletedAt.Sub(job.CreatedAt))
				}
				return job
			}
			if opts.LogProgress && job.Progress != nil {
				t.Logf("Job %s progress: %.0f%% - %s", jobID, job.Progress.Percent(), job.Progress.Message)
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedIndex string) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedIndex, job.IndexName, "Job index name should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// RenderedRanking returns the text of every ranked shift of a queryable index
func RenderedRanking(t *testing.T, indexAccessor services.IndexAccessor) []string {
	t.Helper()
	var buf strings.Builder
	_, err := indexAccessor.WriteRanking(t.Context(), &buf)
	require.NoError(t, err)
	out := strings.TrimSuffix(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// AsyncOperationTest represents a test case for async operations
type AsyncOperationTest struct {
	Name            string
	SetupFunc       func(t *testing.T, eng *engine.Engine) string                   // Returns index name
	OperationFunc   func(t *testing.T, eng *engine.Engine, indexName string) string // Returns job ID
	ValidateFunc    func(t *testing.T, eng *engine.Engine, indexName string, job *model.Job)
	ExpectedJobType model.JobType
}

// RunAsyncOperationTests runs a suite of async operation tests
func RunAsyncOperationTests(t *testing.T, tests []AsyncOperationTest) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			eng := CreateTestEngine(t)

			indexName := tt.SetupFunc(t, eng)

			jobID := tt.OperationFunc(t, eng, indexName)
			require.NotEmpty(t, jobID, "Job ID should not be empty")

			job := WaitForJobCompletion(t, eng, jobID, DefaultJobPollingOptions())

			AssertJobCompleted(t, job, tt.ExpectedJobType, indexName)

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, eng, indexName, job)
			}
		})
	}
}

// RankingTestCase represents a corpus and the ranking it must produce
type RankingTestCase struct {
	Name     string
	Lines    []string
	Expected []string
}

// RunRankingTests builds one index per case and compares its rendered ranking
func RunRankingTests(t *testing.T, eng *engine.Engine, tests []RankingTestCase) {
	for i, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			indexAccessor := CreateQueryableIndex(t, eng, "ranking-"+strconv.Itoa(i), tt.Lines)
			assert.Equal(t, tt.Expected, RenderedRanking(t, indexAccessor))
		})
	}
}
