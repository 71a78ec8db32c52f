package engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/model"
)

// BuildIndexAsync starts a build job for an index in the Loading phase and
// returns its job ID.
func (e *Engine) BuildIndexAsync(name string) (string, error) {
	instance, err := e.instance(name)
	if err != nil {
		return "", err
	}
	instance.mu.RLock()
	phaseErr := instance.requireLoadingUnsafe()
	instance.mu.RUnlock()
	if phaseErr != nil {
		return "", phaseErr
	}

	info := instance.Info()
	jobID := e.jobManager.CreateJob(model.JobTypeBuildIndex, name, map[string]string{
		"operation":  "build_index",
		"line_count": strconv.Itoa(info.LineCount),
		"word_count": strconv.Itoa(info.WordCount),
	})

	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeBuildIndexJob(ctx, name, info.WordCount, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start build index job: %w", err)
	}
	return jobID, nil
}

func (e *Engine) executeBuildIndexJob(ctx context.Context, name string, shiftCount int, jobID string) error {
	e.jobManager.UpdateJobProgress(jobID, 0, shiftCount, "Ranking circular shifts")

	if err := e.BuildIndex(ctx, name); err != nil {
		return err
	}

	e.jobManager.UpdateJobProgress(jobID, shiftCount, shiftCount, "Index is queryable")
	log.Printf("Index '%s' built (async job %s).", name, jobID)
	return nil
}

// DeleteIndexAsync deletes an index in a background job.
func (e *Engine) DeleteIndexAsync(name string) (string, error) {
	if _, err := e.instance(name); err != nil {
		return "", err
	}

	jobID := e.jobManager.CreateJob(model.JobTypeDeleteIndex, name, map[string]string{
		"operation": "delete_index",
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.DeleteIndex(name)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start delete index job: %w", err)
	}
	return jobID, nil
}

// LoadLinesAsync parses data as text, one line per physical line, into an
// index in the Loading phase, in a background job.
func (e *Engine) LoadLinesAsync(name, source string, data []byte) (string, error) {
	instance, err := e.instance(name)
	if err != nil {
		return "", err
	}
	if phase := instance.Phase(); phase != model.PhaseLoading {
		return "", errors.NewPhaseError(name, string(phase), string(model.PhaseLoading))
	}

	jobID := e.jobManager.CreateJob(model.JobTypeLoadLines, name, map[string]string{
		"operation": "load_lines",
		"source":    source,
		"bytes":     strconv.Itoa(len(data)),
	})

	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeLoadLinesJob(ctx, instance, source, data, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start load lines job: %w", err)
	}
	return jobID, nil
}

func (e *Engine) executeLoadLinesJob(ctx context.Context, instance *IndexInstance, source string, data []byte, jobID string) error {
	name := instance.Settings().Name
	e.jobManager.UpdateJobProgress(jobID, 0, len(data), "Reading lines")

	n, err := instance.ReadLines(ctx, source, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to load lines into index '%s': %w", name, err)
	}
	if err := e.persistIndex(instance); err != nil {
		log.Printf("Warning: failed to persist index '%s' after loading lines: %v", name, err)
	}

	e.jobManager.UpdateJobProgress(jobID, len(data), len(data), fmt.Sprintf("Loaded %d lines", n))
	log.Printf("Loaded %d lines into index '%s' (async).", n, name)
	return nil
}
