// Package ingest feeds text sources into a line store, one physical line per
// logical line. It is the only place that reads external data, and so the only
// place that reports malformed input.
package ingest

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"unicode/utf8"

	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/internal/tokenizer"
)

const (
	// MaxLineBytes is the longest physical line accepted.
	MaxLineBytes = 1024 * 1024

	initialBufSize = 64 * 1024

	// StdinSource names standard input in file lists and error messages.
	StdinSource = "-"
)

// LineSink receives parsed lines. *store.LineStore satisfies it.
type LineSink interface {
	AppendLine(words []string)
	AppendEmptyLine()
}

// ReadLines parses every line of r into sink and returns the number of lines read.
// source names r in error messages. Lines already appended stay in sink when an
// error is returned; callers that need all-or-nothing should read into a scratch
// store first.
func ReadLines(ctx context.Context, source string, r io.Reader, sink LineSink) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufSize), MaxLineBytes)

	count := 0
	for scanner.Scan() {
		if count%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return count, err
			}
		}
		line := scanner.Bytes()
		if !utf8.Valid(line) {
			return count, errors.NewMalformedInputError(source, count+1, "invalid UTF-8")
		}

		words := tokenizer.SplitWords(string(line))
		if len(words) == 0 {
			sink.AppendEmptyLine()
		} else {
			sink.AppendLine(words)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, errors.NewMalformedInputError(source, count+1, err.Error())
	}
	return count, nil
}

// LoadFile reads the file at path into sink.
func LoadFile(ctx context.Context, path string, sink LineSink) (int, error) {
	file, err := os.Open(path) // #nosec G304 -- path is supplied by the operator on the command line
	if err != nil {
		return 0, errors.NewMalformedInputError(path, 0, err.Error())
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close file %s: %v", path, closeErr)
		}
	}()

	return ReadLines(ctx, path, file, sink)
}

// LoadFiles reads each path in order into sink, as if the files were concatenated.
// StdinSource, or an empty path list, reads stdin.
func LoadFiles(ctx context.Context, paths []string, stdin io.Reader, sink LineSink) (int, error) {
	if len(paths) == 0 {
		paths = []string{StdinSource}
	}

	total := 0
	for _, path := range paths {
		var (
			n   int
			err error
		)
		if path == StdinSource {
			n, err = ReadLines(ctx, "stdin", stdin, sink)
		} else {
			n, err = LoadFile(ctx, path, sink)
		}
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
