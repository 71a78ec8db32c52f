package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kwicerrors "github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/model"
)

func waitTerminal(t *testing.T, manager *Manager, jobID string) *model.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := manager.WaitForJob(ctx, jobID)
	require.NoError(t, err)
	return job
}

func TestJobManager_CreateJob(t *testing.T) {
	manager := NewManager(2)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBuildIndex, "test-index", map[string]string{
		"operation": "test",
	})
	require.NotEmpty(t, jobID)

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeBuildIndex, job.Type)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, "test-index", job.IndexName)
	assert.Equal(t, "test", job.Metadata["operation"])

	job.Metadata["operation"] = "mutated"
	again, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, "test", again.Metadata["operation"], "GetJob returns a copy")

	_, err = manager.GetJob("missing")
	assert.ErrorIs(t, err, kwicerrors.ErrJobNotFound)
}

func TestJobManager_ExecuteJob(t *testing.T) {
	manager := NewManager(2)
	manager.Start()
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeBuildIndex, "test-index", nil)

	err := manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		manager.UpdateJobProgress(jobID, 50, 100, "Halfway done")
		manager.UpdateJobProgress(jobID, 100, 100, "Completed")
		return nil
	})
	require.NoError(t, err)

	job := waitTerminal(t, manager, jobID)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 100, job.Progress.Current)
	assert.Equal(t, 100, job.Progress.Total)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	err = manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error { return nil })
	assert.Error(t, err, "a finished job cannot run again")
}

func TestJobManager_FailedJob(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	jobID := manager.CreateJob(model.JobTypeLoadLines, "test-index", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return errors.New("boom")
	}))

	job := waitTerminal(t, manager, jobID)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)

	metrics := manager.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsFailed)
	assert.Equal(t, 0.0, metrics.SuccessRate)
}

func TestJobManager_CancelRunningJob(t *testing.T) {
	manager := NewManager(1)
	defer manager.Stop()

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeBuildIndex, "test-index", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	<-started
	require.NoError(t, manager.CancelJob(jobID))

	job := waitTerminal(t, manager, jobID)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
	assert.Equal(t, int64(1), manager.GetMetrics().JobsCancelled)
	assert.Equal(t, int64(0), manager.GetCurrentWorkload())
}

func TestJobManager_StopCancelsRunningJobs(t *testing.T) {
	manager := NewManager(1)

	started := make(chan struct{})
	jobID := manager.CreateJob(model.JobTypeBuildIndex, "test-index", nil)
	require.NoError(t, manager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	manager.Stop()
	manager.Stop()

	job, err := manager.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)

	next := manager.CreateJob(model.JobTypeBuildIndex, "test-index", nil)
	assert.Error(t, manager.ExecuteJob(next, func(ctx context.Context, job *model.Job) error { return nil }))
}

func TestJobManager_ListJobsAndCleanup(t *testing.T) {
	manager := NewManager(2)
	defer manager.Stop()

	first := manager.CreateJob(model.JobTypeLoadLines, "a", nil)
	manager.CreateJob(model.JobTypeBuildIndex, "a", nil)
	manager.CreateJob(model.JobTypeBuildIndex, "b", nil)

	require.NoError(t, manager.ExecuteJob(first, func(ctx context.Context, job *model.Job) error { return nil }))
	waitTerminal(t, manager, first)

	assert.Len(t, manager.ListJobs("a", nil), 2)
	completed := model.JobStatusCompleted
	done := manager.ListJobs("a", &completed)
	require.Len(t, done, 1)
	assert.Equal(t, first, done[0].ID)

	manager.CleanupOldJobs(-time.Second)
	_, err := manager.GetJob(first)
	assert.ErrorIs(t, err, kwicerrors.ErrJobNotFound)
	assert.Len(t, manager.ListJobs("a", nil), 1)
}
