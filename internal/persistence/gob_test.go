package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name  string
	Lines [][]string
}

func TestSaveAndLoadGob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "books", LineStoreFile)
	original := snapshot{Name: "books", Lines: [][]string{{"a", "b"}, {"c"}}}

	require.NoError(t, SaveGob(path, original))

	var loaded snapshot
	require.NoError(t, LoadGob(path, &loaded))
	assert.Equal(t, original, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestSaveGob_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFile)

	require.NoError(t, SaveGob(path, snapshot{Name: "first"}))
	require.NoError(t, SaveGob(path, snapshot{Name: "second"}))

	var loaded snapshot
	require.NoError(t, LoadGob(path, &loaded))
	assert.Equal(t, "second", loaded.Name)
}

func TestSaveGob_EncodeFailureKeepsPreviousFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), RankingFile)
	require.NoError(t, SaveGob(path, snapshot{Name: "kept"}))

	err := SaveGob(path, make(chan int))
	require.Error(t, err)

	var loaded snapshot
	require.NoError(t, LoadGob(path, &loaded))
	assert.Equal(t, "kept", loaded.Name)
}

func TestLoadGob_MissingFile(t *testing.T) {
	var loaded snapshot
	err := LoadGob(filepath.Join(t.TempDir(), "missing.gob"), &loaded)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRemoveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), RankingFile)
	require.NoError(t, SaveGob(path, snapshot{Name: "gone"}))

	require.NoError(t, RemoveFile(path))
	require.NoError(t, RemoveFile(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
