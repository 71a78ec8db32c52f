// Package shift derives the circular shifts of every line in a corpus.
// Shifts are (line, offset) references; word data is only read when a
// shift is resolved.
package shift

import (
	"fmt"

	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/model"
)

// Corpus is the read access the generator and orderer need from a line store.
type Corpus interface {
	LineCount() int
	WordCount(line int) (int, error)
	Word(line, word int) (string, error)
}

// Generate returns one reference per word of every line, in line order and
// then offset order. A line with no words contributes no references.
func Generate(corpus Corpus) ([]model.ShiftRef, error) {
	total, err := Count(corpus)
	if err != nil {
		return nil, err
	}

	refs := make([]model.ShiftRef, 0, total)
	for line := 0; line < corpus.LineCount(); line++ {
		n, err := corpus.WordCount(line)
		if err != nil {
			return nil, fmt.Errorf("failed to count words of line %d: %w", line, err)
		}
		for offset := 0; offset < n; offset++ {
			refs = append(refs, model.ShiftRef{Line: line, Offset: offset})
		}
	}
	return refs, nil
}

// Count returns the number of shifts Generate would produce.
func Count(corpus Corpus) (int, error) {
	total := 0
	for line := 0; line < corpus.LineCount(); line++ {
		n, err := corpus.WordCount(line)
		if err != nil {
			return 0, fmt.Errorf("failed to count words of line %d: %w", line, err)
		}
		total += n
	}
	return total, nil
}

// Len returns the word count of the shift's line after checking that the
// reference still fits the corpus.
func Len(corpus Corpus, ref model.ShiftRef) (int, error) {
	n, err := corpus.WordCount(ref.Line)
	if err != nil {
		return 0, err
	}
	if ref.Offset < 0 || ref.Offset >= n {
		return 0, errors.NewOutOfRangeError(errors.KindShift, ref.Offset, n)
	}
	return n, nil
}

// WordAt returns the i-th word of the rotation denoted by ref, where n is the
// line's word count as returned by Len.
func WordAt(corpus Corpus, ref model.ShiftRef, n, i int) (string, error) {
	return corpus.Word(ref.Line, (ref.Offset+i)%n)
}

// Resolve materializes the words of the rotation denoted by ref.
func Resolve(corpus Corpus, ref model.ShiftRef) ([]string, error) {
	n, err := Len(corpus, ref)
	if err != nil {
		return nil, err
	}
	words := make([]string, n)
	for i := 0; i < n; i++ {
		w, err := WordAt(corpus, ref, n, i)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}
