package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-kwic/index"
	"github.com/gcbaptista/go-kwic/internal/alphabetize"
	"github.com/gcbaptista/go-kwic/internal/errors"
	"github.com/gcbaptista/go-kwic/store"
)

func TestWriteRanking(t *testing.T) {
	corpus := store.NewLineStoreFromWords([][]string{
		{"Descriptive", "notation,", "in"},
		{},
		{"expressions", "for"},
	})
	idx, err := index.Build(context.Background(), corpus, alphabetize.NewOrderer(alphabetize.Options{}))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := WriteRanking(&buf, idx)
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	expected := "Descriptive notation, in\n" +
		"expressions for\n" +
		"for expressions\n" +
		"in Descriptive notation,\n" +
		"notation, in Descriptive\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteRanking_Empty(t *testing.T) {
	idx, err := index.Build(context.Background(), store.NewLineStore(), alphabetize.NewOrderer(alphabetize.Options{}))
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := WriteRanking(&buf, idx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, buf.String())
}

func TestLines_PropagatesResolutionErrors(t *testing.T) {
	corpus := store.NewLineStoreFromWords([][]string{{"a", "b"}})
	idx, err := index.Build(context.Background(), corpus, alphabetize.NewOrderer(alphabetize.Options{}))
	require.NoError(t, err)

	require.NoError(t, corpus.DeleteLine(0))

	_, err = Lines(idx)
	assert.ErrorIs(t, err, errors.ErrOutOfRange)
}
