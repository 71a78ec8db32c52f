package model

import (
	"time"
)

// JobStatus is the lifecycle state of a background job.
//
// A job starts pending, waits for a worker slot, runs, and ends completed,
// failed or cancelled. Cancelling is the short window between a cancel request
// and the job function returning.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelling JobStatus = "cancelling"
	JobStatusCancelled  JobStatus = "cancelled"
)

// JobType names the index operation a job performs.
type JobType string

const (
	// JobTypeBuildIndex ranks every circular shift of an index in the Loading
	// phase and leaves it Queryable. A failed or cancelled build leaves the
	// index in Loading.
	JobTypeBuildIndex JobType = "build_index"
	// JobTypeLoadLines parses an uploaded text body into an index in the
	// Loading phase. All lines are appended, or none.
	JobTypeLoadLines JobType = "load_lines"
	// JobTypeDeleteIndex removes an index from memory and disk.
	JobTypeDeleteIndex JobType = "delete_index"
)

// Job is a background index operation as reported by the jobs API.
// Metadata holds operation details such as the line and word counts at the
// time a build was requested.
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	IndexName   string            `json:"index_name"`
	Progress    *JobProgress      `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// JobProgress counts shifts ranked for a build and bytes read for a line load.
type JobProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// Percent returns Current as a percentage of Total, or 0 when Total is 0.
func (jp *JobProgress) Percent() float64 {
	if jp.Total == 0 {
		return 0
	}
	return float64(jp.Current) / float64(jp.Total) * 100
}
