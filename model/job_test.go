package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJob_IsTerminal(t *testing.T) {
	terminal := map[JobStatus]bool{
		JobStatusPending:    false,
		JobStatusRunning:    false,
		JobStatusCancelling: false,
		JobStatusCompleted:  true,
		JobStatusFailed:     true,
		JobStatusCancelled:  true,
	}
	for status, want := range terminal {
		job := &Job{Status: status}
		assert.Equal(t, want, job.IsTerminal(), "status %s", status)
	}
}

func TestJobProgress_Percent(t *testing.T) {
	assert.Equal(t, 0.0, (&JobProgress{}).Percent())
	assert.Equal(t, 25.0, (&JobProgress{Current: 1, Total: 4}).Percent())
	assert.Equal(t, 100.0, (&JobProgress{Current: 6, Total: 6}).Percent())
}
