package engine

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/internal/cache"
	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/internal/jobs"
	"github.com/gcbaptista/go-kwic/internal/render"
	"github.com/gcbaptista/go-kwic/model"
	"github.com/gcbaptista/go-kwic/services"
)

const (
	dataDirPerm       = 0755
	defaultJobWorkers = 2
)

// Engine manages multiple KWIC indexes.
// It implements the services.IndexManagerWithAsync and services.JobManager interfaces.
type Engine struct {
	mu         sync.RWMutex
	indexes    map[string]*IndexInstance
	dataDir    string
	jobManager *jobs.Manager
	cache      cache.RenderedCache
	jobWorkers int
	jobMaxAge  time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithJobWorkers sets how many background jobs may run at once.
func WithJobWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.jobWorkers = n
		}
	}
}

// WithJobMaxAge sets how long finished jobs are retained.
func WithJobMaxAge(maxAge time.Duration) Option {
	return func(e *Engine) {
		e.jobMaxAge = maxAge
	}
}

// WithRenderedCache stores rendered rankings in c after every build.
func WithRenderedCache(c cache.RenderedCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// NewEngine creates a new KWIC engine orchestrator and loads any indexes
// previously persisted under dataDir.
func NewEngine(dataDir string, opts ...Option) *Engine {
	eng := &Engine{
		indexes:    make(map[string]*IndexInstance),
		dataDir:    dataDir,
		jobWorkers: defaultJobWorkers,
	}
	for _, opt := range opts {
		opt(eng)
	}

	eng.jobManager = jobs.NewManager(eng.jobWorkers)
	eng.jobManager.SetMaxAge(eng.jobMaxAge)
	eng.jobManager.Start()

	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v. Proceeding without persistence for new indexes if loading fails.", dataDir, err)
	}
	eng.loadIndexesFromDisk()
	return eng
}

// Close stops the job manager, cancelling running builds.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// CreateIndex creates a new empty index in the Loading phase and persists it.
func (e *Engine) CreateIndex(settings config.IndexSettings) error {
	if problems := settings.Validate(); len(problems) > 0 {
		return errors.NewValidationError("settings", problems[0])
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[settings.Name]; exists {
		return errors.NewIndexAlreadyExistsError(settings.Name)
	}

	instance, err := NewIndexInstance(settings)
	if err != nil {
		return err
	}
	instance.cache = e.cache

	if err := e.persistIndex(instance); err != nil {
		return err
	}

	e.indexes[settings.Name] = instance
	log.Printf("Index '%s' created and persisted.", settings.Name)
	return nil
}

// GetIndex retrieves an index by its name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	return e.instance(name)
}

func (e *Engine) instance(name string) (*IndexInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings retrieves the settings for a specific index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	instance, err := e.instance(name)
	if err != nil {
		return config.IndexSettings{}, err
	}
	return instance.Settings(), nil
}

// ListIndexes returns the names of all loaded indexes in alphabetical order.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteIndex removes an index by its name from memory, disk and the rendered cache.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, exists := e.indexes[name]
	if !exists {
		return errors.NewIndexNotFoundError(name)
	}

	instance.mu.Lock()
	if instance.building {
		instance.mu.Unlock()
		return errors.NewPhaseError(name, phaseBuilding, string(model.PhaseLoading))
	}
	// holders of the instance see the index as gone from here on
	instance.deleted = true
	delete(e.indexes, name)

	indexPath := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(indexPath); err != nil {
		log.Printf("Warning: failed to delete index data directory %s: %v", indexPath, err)
	}
	instance.mu.Unlock()
	e.invalidateCache(name)
	log.Printf("Index '%s' deleted from memory and disk.", name)
	return nil
}

// BuildIndex generates and ranks every circular shift of the index's line
// store, making the index queryable, and persists the ranking.
func (e *Engine) BuildIndex(ctx context.Context, name string) error {
	instance, err := e.instance(name)
	if err != nil {
		return err
	}
	if err := instance.build(ctx); err != nil {
		return err
	}

	if err := e.persistIndex(instance); err != nil {
		log.Printf("Warning: index '%s' built but could not be persisted: %v", name, err)
	}
	e.cacheRendered(ctx, instance)
	return nil
}

// ResetIndex discards the line store and ranking of an index and returns it
// to the Loading phase for a new run.
func (e *Engine) ResetIndex(name string) error {
	instance, err := e.instance(name)
	if err != nil {
		return err
	}
	if err := instance.reset(); err != nil {
		return err
	}
	e.invalidateCache(name)
	if err := e.persistIndex(instance); err != nil {
		return err
	}
	log.Printf("Index '%s' reset to phase '%s'.", name, model.PhaseLoading)
	return nil
}

// PersistIndexData saves the current state of an index to disk.
// It should be called after modifications (e.g., AppendLines).
func (e *Engine) PersistIndexData(indexName string) error {
	instance, err := e.instance(indexName)
	if err != nil {
		return err
	}
	return e.persistIndex(instance)
}

func (e *Engine) cacheRendered(ctx context.Context, instance *IndexInstance) {
	if e.cache == nil {
		return
	}
	kwic, err := instance.queryable()
	if err != nil {
		return
	}
	instance.mu.RLock()
	name, buildID := instance.settings.Name, instance.buildID
	instance.mu.RUnlock()

	lines, err := render.Lines(kwic)
	if err != nil {
		log.Printf("Warning: failed to render index '%s' for the cache: %v", name, err)
		return
	}
	if err := e.cache.Store(ctx, name, buildID, lines); err != nil {
		log.Printf("Warning: %v", err)
	}
}

func (e *Engine) invalidateCache(name string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(context.Background(), name); err != nil {
		log.Printf("Warning: %v", err)
	}
}

// GetJob retrieves a job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns the jobs of an index, optionally filtered by status.
func (e *Engine) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(indexName, status)
}

// CancelJob requests cancellation of a pending or running job.
func (e *Engine) CancelJob(jobID string) error {
	return e.jobManager.CancelJob(jobID)
}

// WaitForJob blocks until a job finishes or ctx is done.
func (e *Engine) WaitForJob(ctx context.Context, jobID string) (*model.Job, error) {
	return e.jobManager.WaitForJob(ctx, jobID)
}

// GetMetrics returns job performance metrics.
func (e *Engine) GetMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetCurrentWorkload returns the number of active jobs.
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}
