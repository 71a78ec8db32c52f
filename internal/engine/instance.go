package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/index"
	"github.com/gcbaptista/go-kwic/internal/alphabetize"
	"github.com/gcbaptista/go-kwic/internal/cache"
	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/internal/ingest"
	"github.com/gcbaptista/go-kwic/internal/render"
	"github.com/gcbaptista/go-kwic/internal/tokenizer"
	"github.com/gcbaptista/go-kwic/model"
	"github.com/gcbaptista/go-kwic/services"
	"github.com/gcbaptista/go-kwic/store"
)

// phaseBuilding is reported in phase errors while a build holds the line store.
const phaseBuilding = "building"

// IndexInstance holds the line store, phase and ranking of a single KWIC index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	mu       sync.RWMutex
	settings config.IndexSettings
	phase    model.Phase
	building bool
	deleted  bool
	lines    *store.LineStore
	kwic     *index.KWICIndex
	buildID  string
	builtAt  *time.Time

	cache cache.RenderedCache
}

// NewIndexInstance creates an empty index in the Loading phase.
func NewIndexInstance(settings config.IndexSettings) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}
	settings.ApplyDefaults()
	return &IndexInstance{
		settings: settings,
		phase:    model.PhaseLoading,
		lines:    store.NewLineStore(),
	}, nil
}

// Settings returns the configuration settings for this index.
func (i *IndexInstance) Settings() config.IndexSettings {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.settings
}

// Phase returns the current lifecycle phase.
func (i *IndexInstance) Phase() model.Phase {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.phase
}

// Info returns a summary of the index.
func (i *IndexInstance) Info() services.IndexInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()

	info := services.IndexInfo{
		Settings:  i.settings,
		Phase:     i.phase,
		LineCount: i.lines.LineCount(),
		WordCount: i.lines.TotalWordCount(),
		BuildID:   i.buildID,
	}
	if i.kwic != nil {
		info.RankCount = i.kwic.RankCount()
	}
	if i.builtAt != nil {
		builtAt := *i.builtAt
		info.BuiltAt = &builtAt
	}
	return info
}

// Line returns the words and text of one stored line. Lines are readable in
// every phase.
func (i *IndexInstance) Line(line int) (services.LineView, error) {
	i.mu.RLock()
	lines := i.lines
	i.mu.RUnlock()

	words, err := lines.LineAsWords(line)
	if err != nil {
		return services.LineView{}, err
	}
	return services.LineView{Line: line, Words: words, Text: tokenizer.JoinWords(words)}, nil
}

// AppendLines adds lines of words at the end of the line store.
func (i *IndexInstance) AppendLines(lines [][]string) (int, error) {
	var start int
	err := i.mutate(func(ls *store.LineStore) error {
		start = ls.LineCount()
		for _, words := range lines {
			if len(words) == 0 {
				ls.AppendEmptyLine()
				continue
			}
			ls.AppendLine(words)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return start, nil
}

// ReadLines parses r one physical line at a time and appends the lines to the
// line store. Either every line of r is appended or, on any read failure,
// none is.
func (i *IndexInstance) ReadLines(ctx context.Context, source string, r io.Reader) (int, error) {
	i.mu.RLock()
	err := i.requireLoadingUnsafe()
	i.mu.RUnlock()
	if err != nil {
		return 0, err
	}

	scratch := store.NewLineStore()
	n, err := ingest.ReadLines(ctx, source, r, scratch)
	if err != nil {
		return 0, err
	}

	lines := make([][]string, n)
	for line := range lines {
		if lines[line], err = scratch.LineAsWords(line); err != nil {
			return 0, err
		}
	}
	if _, err := i.AppendLines(lines); err != nil {
		return 0, err
	}
	return n, nil
}

// SetWord replaces one word.
func (i *IndexInstance) SetWord(line, word int, value string) error {
	return i.mutate(func(ls *store.LineStore) error {
		return ls.SetWord(line, word, value)
	})
}

// InsertWord inserts a word before position word.
func (i *IndexInstance) InsertWord(line, word int, value string) error {
	return i.mutate(func(ls *store.LineStore) error {
		return ls.InsertWord(line, word, value)
	})
}

// AddWord appends a word to a line.
func (i *IndexInstance) AddWord(line int, value string) error {
	return i.mutate(func(ls *store.LineStore) error {
		return ls.AddWord(line, value)
	})
}

// DeleteWord removes one word.
func (i *IndexInstance) DeleteWord(line, word int) error {
	return i.mutate(func(ls *store.LineStore) error {
		return ls.DeleteWord(line, word)
	})
}

// mutate runs fn against the line store while holding the write lock, which
// keeps a concurrent build from starting mid-mutation.
func (i *IndexInstance) mutate(fn func(ls *store.LineStore) error) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.requireLoadingUnsafe(); err != nil {
		return err
	}
	return fn(i.lines)
}

func (i *IndexInstance) requireLoadingUnsafe() error {
	if i.deleted {
		return errors.NewIndexNotFoundError(i.settings.Name)
	}
	if i.building {
		return errors.NewPhaseError(i.settings.Name, phaseBuilding, string(model.PhaseLoading))
	}
	if i.phase != model.PhaseLoading {
		return errors.NewPhaseError(i.settings.Name, string(i.phase), string(model.PhaseLoading))
	}
	return nil
}

// queryable returns the facade once the index has reached the Queryable phase.
func (i *IndexInstance) queryable() (*index.KWICIndex, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.deleted {
		return nil, errors.NewIndexNotFoundError(i.settings.Name)
	}
	if i.phase != model.PhaseQueryable || i.kwic == nil {
		return nil, errors.NewPhaseError(i.settings.Name, string(i.phase), string(model.PhaseQueryable))
	}
	return i.kwic, nil
}

// RankCount returns the number of ranked shifts.
func (i *IndexInstance) RankCount() (int, error) {
	kwic, err := i.queryable()
	if err != nil {
		return 0, err
	}
	return kwic.RankCount(), nil
}

// Entry resolves the shift at rank.
func (i *IndexInstance) Entry(rank int) (model.RankedEntry, error) {
	kwic, err := i.queryable()
	if err != nil {
		return model.RankedEntry{}, err
	}
	return kwic.Entry(rank)
}

// Page returns page (1-based) of the ranking with pageSize entries per page.
func (i *IndexInstance) Page(page, pageSize int) (services.RankingPage, error) {
	if page < 1 {
		return services.RankingPage{}, errors.NewValidationError("page", "must be at least 1")
	}
	if pageSize < 1 {
		return services.RankingPage{}, errors.NewValidationError("page_size", "must be at least 1")
	}
	kwic, err := i.queryable()
	if err != nil {
		return services.RankingPage{}, err
	}

	total := kwic.RankCount()
	offset := (page - 1) * pageSize
	result := services.RankingPage{
		Entries:  []model.RankedEntry{},
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	if offset >= total {
		return result, nil
	}
	entries, err := kwic.Page(offset, pageSize)
	if err != nil {
		return services.RankingPage{}, err
	}
	result.Entries = entries
	return result, nil
}

// WriteRanking writes the rendered ranking to w, one shift per line, serving
// it from the rendered cache when one is configured and holds this build.
func (i *IndexInstance) WriteRanking(ctx context.Context, w io.Writer) (int, error) {
	kwic, err := i.queryable()
	if err != nil {
		return 0, err
	}

	i.mu.RLock()
	rc, name, buildID := i.cache, i.settings.Name, i.buildID
	i.mu.RUnlock()

	if rc != nil {
		lines, ok, err := rc.Lines(ctx, name, buildID, 0, -1)
		if err != nil {
			log.Printf("Warning: rendered cache read failed for index '%s': %v. Rendering from the line store.", name, err)
		} else if ok {
			return writeLines(w, lines)
		}
	}
	return render.WriteRanking(w, kwic)
}

func writeLines(w io.Writer, lines []string) (int, error) {
	for n, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return n, fmt.Errorf("failed to write line %d: %w", n, err)
		}
	}
	return len(lines), nil
}

// build moves the index from Loading through Indexed to Queryable. The line
// store is frozen for the duration; on failure the index stays in Loading
// without a ranking.
func (i *IndexInstance) build(ctx context.Context) error {
	i.mu.Lock()
	if err := i.requireLoadingUnsafe(); err != nil {
		i.mu.Unlock()
		return err
	}
	i.building = true
	lines := i.lines
	settings := i.settings
	i.mu.Unlock()

	orderer := alphabetize.NewOrderer(alphabetize.Options{
		Parallelism:        settings.Parallelism,
		MinShiftsPerWorker: settings.MinShiftsPerWorker,
	})
	startTime := time.Now()
	kwic, err := index.Build(ctx, lines, orderer)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.building = false
	if err != nil {
		return fmt.Errorf("failed to build index '%s': %w", settings.Name, err)
	}
	if i.deleted {
		return errors.NewIndexNotFoundError(settings.Name)
	}

	i.advanceUnsafe(model.PhaseIndexed)
	i.kwic = kwic
	now := time.Now()
	i.builtAt = &now
	i.buildID = uuid.New().String()
	i.advanceUnsafe(model.PhaseQueryable)

	log.Printf("Index '%s' built: %d lines, %d shifts ranked in %v", settings.Name, lines.LineCount(), kwic.RankCount(), time.Since(startTime))
	return nil
}

func (i *IndexInstance) advanceUnsafe(next model.Phase) {
	if !i.phase.CanTransitionTo(next) {
		panic(fmt.Sprintf("illegal phase transition %s -> %s for index '%s'", i.phase, next, i.settings.Name))
	}
	i.phase = next
}

// reset starts a new run: a fresh line store in the Loading phase.
func (i *IndexInstance) reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.deleted {
		return errors.NewIndexNotFoundError(i.settings.Name)
	}
	if i.building {
		return errors.NewPhaseError(i.settings.Name, phaseBuilding, string(model.PhaseQueryable))
	}
	i.lines = store.NewLineStore()
	i.kwic = nil
	i.phase = model.PhaseLoading
	i.buildID = ""
	i.builtAt = nil
	return nil
}

