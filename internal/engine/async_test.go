package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/model"
)

func waitForJob(t *testing.T, eng *Engine, jobID string) *model.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := eng.WaitForJob(ctx, jobID)
	require.NoError(t, err)
	return job
}

func TestEngine_BuildIndexAsync(t *testing.T) {
	eng, _ := newTestEngine(t)
	instance := createLoadedIndex(t, eng, "books", "to be or not to be")

	jobID, err := eng.BuildIndexAsync("books")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := waitForJob(t, eng, jobID)
	assert.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeBuildIndex, job.Type)
	assert.Equal(t, "books", job.IndexName)
	assert.Equal(t, "6", job.Metadata["word_count"])
	require.NotNil(t, job.Progress)
	assert.Equal(t, 6, job.Progress.Current)

	assert.Equal(t, model.PhaseQueryable, instance.Phase())
	assert.Equal(t, []string{
		"be or not to be to",
		"be to be or not to",
		"not to be to be or",
		"or not to be to be",
		"to be or not to be",
		"to be to be or not",
	}, rankingText(t, instance))

	_, err = eng.BuildIndexAsync("books")
	assert.ErrorIs(t, err, errors.ErrInvalidPhase)
	_, err = eng.BuildIndexAsync("missing")
	assert.ErrorIs(t, err, errors.ErrIndexNotFound)

	jobs := eng.ListJobs("books", nil)
	assert.Len(t, jobs, 1)
}

func TestEngine_LoadLinesAsync(t *testing.T) {
	eng, _ := newTestEngine(t)
	instance := createLoadedIndex(t, eng, "books")

	jobID, err := eng.LoadLinesAsync("books", "upload", []byte("Descriptive notation, in\r\n\r\nexpressions for\n"))
	require.NoError(t, err)

	job := waitForJob(t, eng, jobID)
	assert.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeLoadLines, job.Type)

	info := instance.Info()
	assert.Equal(t, 3, info.LineCount)
	assert.Equal(t, 5, info.WordCount)
}

func TestEngine_LoadLinesAsyncReportsMalformedInput(t *testing.T) {
	eng, _ := newTestEngine(t)
	instance := createLoadedIndex(t, eng, "books", "kept line")

	jobID, err := eng.LoadLinesAsync("books", "upload", []byte("good line\nbad \xff line\n"))
	require.NoError(t, err)

	job := waitForJob(t, eng, jobID)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "malformed input in 'upload' at line 2")
	assert.Equal(t, 1, instance.Info().LineCount, "no line of a failed load is appended")
}

func TestEngine_DeleteIndexAsync(t *testing.T) {
	eng, _ := newTestEngine(t)
	createLoadedIndex(t, eng, "books", "a")

	jobID, err := eng.DeleteIndexAsync("books")
	require.NoError(t, err)

	job := waitForJob(t, eng, jobID)
	assert.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Empty(t, eng.ListIndexes())

	_, err = eng.DeleteIndexAsync("books")
	assert.ErrorIs(t, err, errors.ErrIndexNotFound)
}

func TestEngine_JobMetrics(t *testing.T) {
	eng, _ := newTestEngine(t, WithJobWorkers(1))
	createLoadedIndex(t, eng, "books", "a b")

	jobID, err := eng.BuildIndexAsync("books")
	require.NoError(t, err)
	waitForJob(t, eng, jobID)

	metrics := eng.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsCreated)
	assert.Equal(t, int64(1), metrics.JobsCompleted)
	assert.Equal(t, int64(1), metrics.JobsByType[model.JobTypeBuildIndex])
	assert.Equal(t, int64(0), eng.GetCurrentWorkload())
}
