package jobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/model"
)

// DefaultMaxJobAge is how long finished jobs are retained before cleanup.
const DefaultMaxJobAge = 24 * time.Hour

// JobFunc is the body of a background job. ctx is cancelled when the job is
// cancelled or the manager stops.
type JobFunc func(ctx context.Context, job *model.Job) error

// Manager handles background job execution and tracking
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	cancels  map[string]context.CancelFunc
	workers  chan struct{} // Limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	rootCtx  context.Context
	stopAll  context.CancelFunc
	wg       sync.WaitGroup
	metrics  *JobMetrics
	maxAge   time.Duration
}

// NewManager creates a new job manager with specified worker count
func NewManager(maxWorkers int) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	rootCtx, stopAll := context.WithCancel(context.Background())
	return &Manager{
		jobs:     make(map[string]*model.Job),
		cancels:  make(map[string]context.CancelFunc),
		workers:  make(chan struct{}, maxWorkers),
		stopChan: make(chan struct{}),
		rootCtx:  rootCtx,
		stopAll:  stopAll,
		metrics:  NewJobMetrics(),
		maxAge:   DefaultMaxJobAge,
	}
}

// SetMaxAge changes how long finished jobs are kept. Non-positive values are ignored.
func (m *Manager) SetMaxAge(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAge = maxAge
}

// Start begins the job manager and starts background cleanup
func (m *Manager) Start() {
	log.Printf("Job manager started with %d max workers", cap(m.workers))
	go m.cleanupRoutine()
}

// Stop cancels running jobs and waits for them to return. It is safe to call
// more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.stopAll()
		m.wg.Wait()
		log.Printf("Job manager stopped")
	})
}

// CreateJob creates a new job and returns its ID
func (m *Manager) CreateJob(jobType model.JobType, indexName string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		IndexName: indexName,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	log.Printf("Created job %s (type: %s) for index '%s'", job.ID, job.Type, job.IndexName)
	return job.ID
}

// GetJob retrieves a copy of a job by ID
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns the jobs of an index, oldest first, optionally filtered by status
func (m *Manager) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.Job
	for _, job := range m.jobs {
		if job.IndexName != indexName {
			continue
		}
		if status == nil || job.Status == *status {
			result = append(result, copyJob(job))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// ExecuteJob runs a pending job in a goroutine once a worker slot is free.
func (m *Manager) ExecuteJob(jobID string, jobFunc JobFunc) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}

	select {
	case <-m.stopChan:
		m.mu.Unlock()
		m.updateJobStatus(jobID, model.JobStatusCancelled, "Job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	default:
	}

	ctx, cancel := context.WithCancel(m.rootCtx)
	m.cancels[jobID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()

		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			m.finishJob(jobID, job.Type, 0, ctx.Err())
			return
		}
		defer func() { <-m.workers }()

		m.mu.Lock()
		if job.Status != model.JobStatusPending {
			m.mu.Unlock()
			m.finishJob(jobID, job.Type, 0, context.Canceled)
			return
		}
		oldStatus := job.Status
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
		jobView := copyJob(job)
		m.metrics.RecordJobStatusChange(oldStatus, job.Status)
		m.mu.Unlock()

		startTime := time.Now()
		err := jobFunc(ctx, jobView)
		m.finishJob(jobID, job.Type, time.Since(startTime), err)
	}()

	return nil
}

// CancelJob requests cancellation of a pending or running job. The job
// function observes it through its context.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.IsTerminal() {
		m.mu.Unlock()
		return nil
	}
	oldStatus := job.Status
	job.Status = model.JobStatusCancelling
	m.metrics.RecordJobStatusChange(oldStatus, job.Status)
	cancel := m.cancels[jobID]
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	} else {
		m.updateJobStatus(jobID, model.JobStatusCancelled, context.Canceled.Error())
	}
	return nil
}

// WaitForJob blocks until the job is terminal or ctx is done and returns the
// job's final copy.
func (m *Manager) WaitForJob(ctx context.Context, jobID string) (*model.Job, error) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		job, err := m.GetJob(jobID)
		if err != nil {
			return nil, err
		}
		if job.IsTerminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// UpdateJobProgress updates the progress of a running job
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

func (m *Manager) finishJob(jobID string, jobType model.JobType, executionTime time.Duration, err error) {
	m.mu.Lock()
	delete(m.cancels, jobID)
	m.mu.Unlock()

	// counters are recorded before the status turns terminal so waiters see them
	switch {
	case err == nil:
		m.metrics.RecordJobCompleted(jobType, executionTime)
		m.updateJobStatus(jobID, model.JobStatusCompleted, "")
		log.Printf("Job %s completed successfully in %v", jobID, executionTime)
	case errors.IsCancellation(err):
		m.updateJobStatus(jobID, model.JobStatusCancelled, err.Error())
		log.Printf("Job %s cancelled after %v", jobID, executionTime)
	default:
		m.metrics.RecordJobFailed(jobType)
		m.updateJobStatus(jobID, model.JobStatusFailed, err.Error())
		log.Printf("Job %s failed after %v: %v", jobID, executionTime, err)
	}
}

// updateJobStatus updates the status of a job (internal method)
func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if job.IsTerminal() {
		now := time.Now()
		job.CompletedAt = &now
	}
	m.metrics.RecordJobStatusChange(oldStatus, status)
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.RLock()
			maxAge := m.maxAge
			m.mu.RUnlock()
			m.CleanupOldJobs(maxAge)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than the specified duration
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Printf("Cleaned up %d old jobs", cleaned)
	}
}

// GetMetrics returns current job performance metrics
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetCurrentWorkload returns the number of currently active jobs
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	if job.Metadata != nil {
		jobCopy.Metadata = make(map[string]string, len(job.Metadata))
		for k, v := range job.Metadata {
			jobCopy.Metadata[k] = v
		}
	}
	return &jobCopy
}
