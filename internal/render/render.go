// Package render prints a ranked KWIC index, one shift per output line.
package render

import (
	"bufio"
	"fmt"
	"io"
)

// RankedText is the read side of the index facade used for output.
type RankedText interface {
	RankCount() int
	TextAtAsString(rank int) (string, error)
}

// WriteRanking writes every rank in order, from 0 to RankCount()-1, and
// returns the number of lines written.
func WriteRanking(w io.Writer, idx RankedText) (int, error) {
	bw := bufio.NewWriter(w)

	count := idx.RankCount()
	for rank := 0; rank < count; rank++ {
		text, err := idx.TextAtAsString(rank)
		if err != nil {
			return rank, fmt.Errorf("failed to render rank %d: %w", rank, err)
		}
		if _, err := bw.WriteString(text); err != nil {
			return rank, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return rank, err
		}
	}
	if err := bw.Flush(); err != nil {
		return count, err
	}
	return count, nil
}

// Lines renders every rank into a slice, for callers that cache or page output.
func Lines(idx RankedText) ([]string, error) {
	count := idx.RankCount()
	lines := make([]string, 0, count)
	for rank := 0; rank < count; rank++ {
		text, err := idx.TextAtAsString(rank)
		if err != nil {
			return nil, fmt.Errorf("failed to render rank %d: %w", rank, err)
		}
		lines = append(lines, text)
	}
	return lines, nil
}
