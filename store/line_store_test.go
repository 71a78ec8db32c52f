package store

import (
	"bytes"
	"encoding/gob"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kwicerrors "github.com/gcbaptista/go-kwic/internal/errors"
)

func newTestStore() *LineStore {
	return NewLineStoreFromWords([][]string{
		{"Descriptive", "notation,", "in"},
		{},
		{"expressions", "for"},
	})
}

func TestLineStore_Counts(t *testing.T) {
	ls := newTestStore()

	assert.Equal(t, 3, ls.LineCount())
	assert.Equal(t, 5, ls.TotalWordCount())

	n, err := ls.WordCount(0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ls.WordCount(1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ls.WordCount(3)
	assert.ErrorIs(t, err, kwicerrors.ErrOutOfRange)
	_, err = ls.WordCount(-1)
	assert.ErrorIs(t, err, kwicerrors.ErrOutOfRange)
}

func TestLineStore_WordAccess(t *testing.T) {
	ls := newTestStore()

	w, err := ls.Word(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "for", w)

	_, err = ls.Word(1, 0)
	var rangeErr *kwicerrors.OutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, kwicerrors.KindWord, rangeErr.Kind)
	assert.Equal(t, 0, rangeErr.Limit)

	_, err = ls.Word(9, 0)
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, kwicerrors.KindLine, rangeErr.Kind)
}

func TestLineStore_AppendDoesNotMoveEarlierLines(t *testing.T) {
	ls := NewLineStore()
	ls.AppendLine([]string{"a", "b"})
	ls.AppendEmptyLine()
	ls.AppendLine([]string{"c"})

	text, err := ls.LineAsText(0)
	require.NoError(t, err)
	assert.Equal(t, "a b", text)

	text, err = ls.LineAsText(1)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	text, err = ls.LineAsText(2)
	require.NoError(t, err)
	assert.Equal(t, "c", text)
}

func TestLineStore_DoesNotAliasCallerSlices(t *testing.T) {
	words := []string{"alpha", "beta"}
	ls := NewLineStore()
	ls.AppendLine(words)
	words[0] = "mutated"

	got, err := ls.LineAsWords(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, got)

	got[1] = "changed"
	again, err := ls.LineAsWords(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, again)
}

func TestLineStore_WordMutation(t *testing.T) {
	ls := NewLineStoreFromWords([][]string{{"one", "two", "three"}})

	require.NoError(t, ls.SetWord(0, 1, "TWO"))
	require.NoError(t, ls.AddWord(0, "four"))
	require.NoError(t, ls.InsertWord(0, 0, "zero"))
	require.NoError(t, ls.InsertWord(0, 5, "five"))
	require.NoError(t, ls.AddEmptyWord(0))

	words, err := ls.LineAsWords(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"zero", "one", "TWO", "three", "four", "five", ""}, words)

	require.NoError(t, ls.DeleteWord(0, 2))
	words, err = ls.LineAsWords(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"zero", "one", "three", "four", "five", ""}, words)

	assert.ErrorIs(t, ls.SetWord(0, 6, "x"), kwicerrors.ErrOutOfRange)
	assert.ErrorIs(t, ls.DeleteWord(0, -1), kwicerrors.ErrOutOfRange)
	assert.ErrorIs(t, ls.InsertWord(0, 7, "x"), kwicerrors.ErrOutOfRange)
	assert.ErrorIs(t, ls.AddWord(1, "x"), kwicerrors.ErrOutOfRange)
}

func TestLineStore_CharacterAccess(t *testing.T) {
	ls := NewLineStoreFromWords([][]string{{"café", "in"}})

	n, err := ls.CharCount(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	c, err := ls.Char(0, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 'é', c)

	require.NoError(t, ls.SetChar(0, 0, 0, 'C'))
	require.NoError(t, ls.AddChar(0, 1, 'k'))
	require.NoError(t, ls.DeleteChar(0, 0, 3))

	words, err := ls.LineAsWords(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Caf", "ink"}, words)

	_, err = ls.Char(0, 0, 3)
	var rangeErr *kwicerrors.OutOfRangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, kwicerrors.KindCharacter, rangeErr.Kind)
	assert.Equal(t, 3, rangeErr.Limit)
}

func TestLineStore_LineMutation(t *testing.T) {
	ls := newTestStore()

	require.NoError(t, ls.SetLine(1, []string{"new", "middle"}))
	require.NoError(t, ls.DeleteLine(0))

	assert.Equal(t, 2, ls.LineCount())
	text, err := ls.LineAsText(0)
	require.NoError(t, err)
	assert.Equal(t, "new middle", text)

	assert.ErrorIs(t, ls.DeleteLine(2), kwicerrors.ErrOutOfRange)
	assert.ErrorIs(t, ls.SetLine(-1, nil), kwicerrors.ErrOutOfRange)
}

func TestLineStore_GobRoundTripKeepsEmptyLines(t *testing.T) {
	ls := newTestStore()

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ls))

	decoded := &LineStore{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))

	assert.Equal(t, 3, decoded.LineCount())
	n, err := decoded.WordCount(1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	text, err := decoded.LineAsText(0)
	require.NoError(t, err)
	assert.Equal(t, "Descriptive notation, in", text)
}
