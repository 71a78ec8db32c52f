package engine

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gcbaptista/go-kwic/config"
	"github.com/gcbaptista/go-kwic/index"
	kwicerrors "github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/internal/persistence"
	"github.com/gcbaptista/go-kwic/internal/shift"
	"github.com/gcbaptista/go-kwic/model"
	"github.com/gcbaptista/go-kwic/store"
)

// indexState is what settings.gob holds for one index.
type indexState struct {
	Settings config.IndexSettings
	Phase    model.Phase
	BuildID  string
	BuiltAt  *time.Time
}

// persistIndex writes the line store, the ranking (when built) and finally the
// settings with the phase, so a crash mid-write never leaves a persisted
// Queryable phase pointing at a missing ranking. The read lock is held for the
// whole write so DeleteIndex cannot remove the directory underneath it.
func (e *Engine) persistIndex(instance *IndexInstance) error {
	instance.mu.RLock()
	defer instance.mu.RUnlock()

	if instance.deleted {
		return kwicerrors.NewIndexNotFoundError(instance.settings.Name)
	}
	state := indexState{
		Settings: instance.settings,
		Phase:    instance.phase,
		BuildID:  instance.buildID,
		BuiltAt:  instance.builtAt,
	}
	lines := instance.lines
	kwic := instance.kwic

	name := state.Settings.Name
	indexPath := filepath.Join(e.dataDir, name)

	if err := persistence.SaveGob(filepath.Join(indexPath, persistence.LineStoreFile), lines); err != nil {
		return fmt.Errorf("failed to save line store for index %s: %w", name, err)
	}

	rankingPath := filepath.Join(indexPath, persistence.RankingFile)
	if state.Phase == model.PhaseQueryable && kwic != nil {
		if err := persistence.SaveGob(rankingPath, kwic); err != nil {
			return fmt.Errorf("failed to save ranking for index %s: %w", name, err)
		}
	} else if err := persistence.RemoveFile(rankingPath); err != nil {
		return err
	}

	if err := persistence.SaveGob(filepath.Join(indexPath, persistence.SettingsFile), state); err != nil {
		return fmt.Errorf("failed to save settings for index %s: %w", name, err)
	}
	return nil
}

func (e *Engine) loadIndexesFromDisk() {
	log.Printf("Loading indexes from disk: %s", e.dataDir)
	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		log.Printf("Warning: Failed to read data directory %s: %v. No indexes loaded.", e.dataDir, err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		instance, err := e.loadIndex(item.Name())
		if err != nil {
			log.Printf("Warning: %v. Skipping this index.", err)
			continue
		}
		e.indexes[item.Name()] = instance
		log.Printf("Successfully loaded index: %s (phase: %s)", item.Name(), instance.phase)
	}
}

func (e *Engine) loadIndex(indexName string) (*IndexInstance, error) {
	indexPath := filepath.Join(e.dataDir, indexName)

	var state indexState
	settingsPath := filepath.Join(indexPath, persistence.SettingsFile)
	if err := persistence.LoadGob(settingsPath, &state); err != nil {
		return nil, fmt.Errorf("failed to load settings for index %s from %s: %w", indexName, settingsPath, err)
	}
	if state.Settings.Name != indexName {
		return nil, fmt.Errorf("index name in settings ('%s') does not match directory name ('%s')", state.Settings.Name, indexName)
	}

	instance, err := NewIndexInstance(state.Settings)
	if err != nil {
		return nil, err
	}
	instance.cache = e.cache

	lines := store.NewLineStore()
	lsPath := filepath.Join(indexPath, persistence.LineStoreFile)
	if err := persistence.LoadGob(lsPath, lines); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Info: Line store file %s not found for index %s. Initializing empty store.", lsPath, indexName)
		} else {
			log.Printf("Warning: Failed to load line store for index %s from %s: %v. Proceeding with empty store.", indexName, lsPath, err)
		}
		lines = store.NewLineStore()
		state.Phase = model.PhaseLoading
	}
	instance.lines = lines

	if state.Phase != model.PhaseQueryable {
		return instance, nil
	}

	kwic := &index.KWICIndex{}
	rankingPath := filepath.Join(indexPath, persistence.RankingFile)
	if err := persistence.LoadGob(rankingPath, kwic); err != nil {
		log.Printf("Warning: Failed to load ranking for index %s from %s: %v. Index returns to phase '%s'.", indexName, rankingPath, err, model.PhaseLoading)
		return instance, nil
	}
	if err := validateRanking(lines, kwic.Ranking()); err != nil {
		log.Printf("Warning: Ranking for index %s does not match its line store: %v. Index returns to phase '%s'.", indexName, err, model.PhaseLoading)
		return instance, nil
	}
	kwic.Attach(lines)

	instance.kwic = kwic
	instance.buildID = state.BuildID
	instance.builtAt = state.BuiltAt
	instance.advanceUnsafe(model.PhaseIndexed)
	instance.advanceUnsafe(model.PhaseQueryable)
	return instance, nil
}

// validateRanking checks that ranking is a permutation-sized set of
// references that all resolve against corpus.
func validateRanking(corpus shift.Corpus, ranking model.Ranking) error {
	total, err := shift.Count(corpus)
	if err != nil {
		return err
	}
	if len(ranking) != total {
		return fmt.Errorf("ranking holds %d shifts, line store has %d", len(ranking), total)
	}
	seen := make(map[model.ShiftRef]struct{}, len(ranking))
	for rank, ref := range ranking {
		if _, err := shift.Len(corpus, ref); err != nil {
			return fmt.Errorf("rank %d: %w", rank, err)
		}
		if _, dup := seen[ref]; dup {
			return fmt.Errorf("rank %d: duplicate shift %+v", rank, ref)
		}
		seen[ref] = struct{}{}
	}
	return nil
}
