package index

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"strings"
	"sync"

	"github.com/gcbaptista/go-kwic/internal/alphabetize"
	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/internal/shift"
	"github.com/gcbaptista/go-kwic/model"
)

// KWICIndex binds a corpus to the ranking of its circular shifts.
// The ranking is fixed once built; text is resolved against the corpus on
// every lookup, so later edits to the corpus show up in the text but do not
// reorder the ranking.
type KWICIndex struct {
	Mu      sync.RWMutex
	corpus  shift.Corpus
	ranking model.Ranking
}

// gobKWICIndexData is a helper struct for Gob encoding/decoding KWICIndex data.
// It excludes the mutex and the corpus, which is persisted separately.
type gobKWICIndexData struct {
	Ranking model.Ranking
}

// Build generates every shift of corpus and ranks them with orderer.
// Either the complete index is returned or an error; never a partial ranking.
func Build(ctx context.Context, corpus shift.Corpus, orderer *alphabetize.Orderer) (*KWICIndex, error) {
	refs, err := shift.Generate(corpus)
	if err != nil {
		return nil, fmt.Errorf("failed to generate shifts: %w", err)
	}
	ranking, err := orderer.Rank(ctx, corpus, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to rank %d shifts: %w", len(refs), err)
	}
	return &KWICIndex{corpus: corpus, ranking: ranking}, nil
}

// Attach binds a decoded index to its corpus.
func (idx *KWICIndex) Attach(corpus shift.Corpus) {
	idx.Mu.Lock()
	defer idx.Mu.Unlock()
	idx.corpus = corpus
}

// RankCount returns the number of ranked shifts.
func (idx *KWICIndex) RankCount() int {
	idx.Mu.RLock()
	defer idx.Mu.RUnlock()
	return len(idx.ranking)
}

// Ranking returns a copy of the ranking.
func (idx *KWICIndex) Ranking() model.Ranking {
	idx.Mu.RLock()
	defer idx.Mu.RUnlock()
	return idx.ranking.Clone()
}

// ShiftAt returns the shift reference at rank.
func (idx *KWICIndex) ShiftAt(rank int) (model.ShiftRef, error) {
	idx.Mu.RLock()
	defer idx.Mu.RUnlock()

	if rank < 0 || rank >= len(idx.ranking) {
		return model.ShiftRef{}, errors.NewOutOfRangeError(errors.KindRank, rank, len(idx.ranking))
	}
	return idx.ranking[rank], nil
}

// TextAt resolves the shift at rank to its words.
func (idx *KWICIndex) TextAt(rank int) ([]string, error) {
	ref, err := idx.ShiftAt(rank)
	if err != nil {
		return nil, err
	}

	idx.Mu.RLock()
	corpus := idx.corpus
	idx.Mu.RUnlock()
	if corpus == nil {
		return nil, fmt.Errorf("index has no corpus attached")
	}

	words, err := shift.Resolve(corpus, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rank %d: %w", rank, err)
	}
	return words, nil
}

// TextAtAsString resolves the shift at rank and joins its words with single spaces.
func (idx *KWICIndex) TextAtAsString(rank int) (string, error) {
	words, err := idx.TextAt(rank)
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), nil
}

// Entry resolves the shift at rank into a RankedEntry.
func (idx *KWICIndex) Entry(rank int) (model.RankedEntry, error) {
	ref, err := idx.ShiftAt(rank)
	if err != nil {
		return model.RankedEntry{}, err
	}
	words, err := idx.TextAt(rank)
	if err != nil {
		return model.RankedEntry{}, err
	}
	return model.RankedEntry{
		Rank:   rank,
		Line:   ref.Line,
		Offset: ref.Offset,
		Words:  words,
		Text:   strings.Join(words, " "),
	}, nil
}

// Page resolves up to limit entries starting at rank offset.
// An offset equal to RankCount yields an empty page.
func (idx *KWICIndex) Page(offset, limit int) ([]model.RankedEntry, error) {
	total := idx.RankCount()
	if offset < 0 || offset > total {
		return nil, errors.NewOutOfRangeError(errors.KindRank, offset, total+1)
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	entries := make([]model.RankedEntry, 0, end-offset)
	for rank := offset; rank < end; rank++ {
		entry, err := idx.Entry(rank)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GobEncode implements the gob.GobEncoder interface for KWICIndex.
func (idx *KWICIndex) GobEncode() ([]byte, error) {
	idx.Mu.RLock()
	defer idx.Mu.RUnlock()

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(gobKWICIndexData{Ranking: idx.ranking}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for KWICIndex.
// The corpus must be attached afterwards with Attach.
func (idx *KWICIndex) GobDecode(data []byte) error {
	decodedData := gobKWICIndexData{}

	decoder := gob.NewDecoder(bytes.NewBuffer(data))
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	idx.Mu.Lock()
	defer idx.Mu.Unlock()

	idx.ranking = decodedData.Ranking
	if idx.ranking == nil {
		idx.ranking = make(model.Ranking, 0)
	}
	return nil
}
