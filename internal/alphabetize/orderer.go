// Package alphabetize computes the ranking of a corpus's circular shifts.
//
// Shifts are ordered word by word, each word by character code, a strict prefix
// sorting before its extensions. Textually equal shifts are ordered by line
// index and then offset, so the ranking is a total order and does not depend
// on the stability of the sort algorithm or on how the work was partitioned.
package alphabetize

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-kwic/internal/shift"
	"github.com/gcbaptista/go-kwic/model"
)

const (
	// DefaultMinShiftsPerWorker is the smallest partition worth a goroutine.
	DefaultMinShiftsPerWorker = 4096

	// ctxCheckInterval is how many comparisons run between context checks.
	ctxCheckInterval = 1024
)

// Options configures an Orderer.
type Options struct {
	// Parallelism is the maximum number of partitions sorted concurrently.
	// Values below 2 sort sequentially.
	Parallelism int
	// MinShiftsPerWorker bounds the partition count so that each partition
	// holds at least this many shifts.
	MinShiftsPerWorker int
}

// Orderer builds rankings. It holds no per-run state and is safe for
// concurrent use by multiple builds over different corpora.
type Orderer struct {
	parallelism        int
	minShiftsPerWorker int
}

// NewOrderer creates an Orderer with the given options.
func NewOrderer(opts Options) *Orderer {
	o := &Orderer{
		parallelism:        opts.Parallelism,
		minShiftsPerWorker: opts.MinShiftsPerWorker,
	}
	if o.parallelism < 1 {
		o.parallelism = 1
	}
	if o.minShiftsPerWorker < 1 {
		o.minShiftsPerWorker = DefaultMinShiftsPerWorker
	}
	return o
}

// Compare orders two shift references by the word sequences they denote,
// breaking ties by (line, offset). It returns -1, 0 or +1; 0 only when a and b
// are the same reference.
func Compare(corpus shift.Corpus, a, b model.ShiftRef) (int, error) {
	na, err := shift.Len(corpus, a)
	if err != nil {
		return 0, fmt.Errorf("invalid shift %+v: %w", a, err)
	}
	nb, err := shift.Len(corpus, b)
	if err != nil {
		return 0, fmt.Errorf("invalid shift %+v: %w", b, err)
	}

	for i := 0; i < na && i < nb; i++ {
		wa, err := shift.WordAt(corpus, a, na, i)
		if err != nil {
			return 0, fmt.Errorf("invalid shift %+v: %w", a, err)
		}
		wb, err := shift.WordAt(corpus, b, nb, i)
		if err != nil {
			return 0, fmt.Errorf("invalid shift %+v: %w", b, err)
		}
		if c := strings.Compare(wa, wb); c != 0 {
			return c, nil
		}
	}

	if c := cmp.Compare(na, nb); c != 0 {
		return c, nil
	}
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c, nil
	}
	return cmp.Compare(a.Offset, b.Offset), nil
}

// Rank returns refs permuted into sorted order. refs itself is not modified.
// If any comparison fails or ctx is cancelled, no ranking is returned.
func (o *Orderer) Rank(ctx context.Context, corpus shift.Corpus, refs []model.ShiftRef) (model.Ranking, error) {
	ranking := make(model.Ranking, len(refs))
	copy(ranking, refs)

	parts := o.partitionCount(len(ranking))
	if parts <= 1 {
		if err := sortRun(ctx, corpus, ranking); err != nil {
			return nil, err
		}
		return ranking, nil
	}

	runs := partition(ranking, parts)
	if err := o.sortRuns(ctx, corpus, runs); err != nil {
		return nil, err
	}

	merged, err := o.mergeRuns(ctx, corpus, runs)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (o *Orderer) partitionCount(n int) int {
	if o.parallelism < 2 {
		return 1
	}
	return min(o.parallelism, n/o.minShiftsPerWorker)
}

func (o *Orderer) sortRuns(ctx context.Context, corpus shift.Corpus, runs []model.Ranking) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for _, run := range runs {
		g.Go(func() error {
			return sortRun(gctx, corpus, run)
		})
	}
	return g.Wait()
}

// mergeRuns merges adjacent sorted runs level by level until one remains.
func (o *Orderer) mergeRuns(ctx context.Context, corpus shift.Corpus, runs []model.Ranking) (model.Ranking, error) {
	for len(runs) > 1 {
		next := make([]model.Ranking, (len(runs)+1)/2)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.parallelism)
		for i := 0; i < len(runs); i += 2 {
			if i+1 == len(runs) {
				next[i/2] = runs[i]
				continue
			}
			left, right, slot := runs[i], runs[i+1], i/2
			g.Go(func() error {
				merged, err := merge(gctx, corpus, left, right)
				if err != nil {
					return err
				}
				next[slot] = merged
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		runs = next
	}
	return runs[0], nil
}

// partition splits refs into at most parts contiguous runs, moving each cut
// forward to a line boundary so a line's shifts stay in one run.
func partition(refs model.Ranking, parts int) []model.Ranking {
	runs := make([]model.Ranking, 0, parts)
	size := (len(refs) + parts - 1) / parts
	start := 0
	for start < len(refs) {
		end := min(start+size, len(refs))
		for end < len(refs) && refs[end].Line == refs[end-1].Line {
			end++
		}
		runs = append(runs, refs[start:end])
		start = end
	}
	return runs
}

// sortRun sorts run in place, stopping at the first comparison error.
func sortRun(ctx context.Context, corpus shift.Corpus, run model.Ranking) error {
	var (
		firstErr    error
		comparisons int
	)
	slices.SortFunc(run, func(a, b model.ShiftRef) int {
		if firstErr != nil {
			return 0
		}
		comparisons++
		if comparisons%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				firstErr = err
				return 0
			}
		}
		c, err := Compare(corpus, a, b)
		if err != nil {
			firstErr = err
			return 0
		}
		return c
	})
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func merge(ctx context.Context, corpus shift.Corpus, left, right model.Ranking) (model.Ranking, error) {
	out := make(model.Ranking, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		if (i+j)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c, err := Compare(corpus, left[i], right[j])
		if err != nil {
			return nil, err
		}
		if c <= 0 {
			out = append(out, left[i])
			i++
		} else {
			out = append(out, right[j])
			j++
		}
	}
	out = append(out, left[i:]...)
	return append(out, right[j:]...), nil
}
