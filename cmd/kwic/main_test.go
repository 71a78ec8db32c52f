package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRun_BatchFromStdin(t *testing.T) {
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer

	code := run(nil, strings.NewReader("Descriptive notation, in\nexpressions for\n"), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "Descriptive notation, in\nexpressions for\nfor expressions\nin Descriptive notation,\nnotation, in Descriptive\n", stdout.String())
}

func TestRun_BatchConcatenatesFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	first := writeFile(t, dir, "a.txt", "b a\n")
	second := writeFile(t, dir, "b.txt", "\nc\n")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-parallelism", "3", first, second}, strings.NewReader(""), &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "a b\nb a\nc\n", stdout.String())
}

func TestRun_EmptyInputPrintsNothing(t *testing.T) {
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer

	code := run([]string{"-"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Empty(t, stdout.String())
}

func TestRun_MalformedInputWritesNothing(t *testing.T) {
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer

	code := run(nil, strings.NewReader("fine\nbad \xff\n"), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "line 2")
}

func TestRun_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer

	code := run([]string{"does-not-exist.txt"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "does-not-exist.txt")
}

func TestRun_Flags(t *testing.T) {
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "go-kwic")

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"-help"}, nil, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "kwic serve")

	assert.Equal(t, 2, run([]string{"-no-such-flag"}, nil, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"-parallelism", "-1"}, strings.NewReader(""), &stdout, &stderr))
}

func TestLoadConfig_FlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := writeFile(t, dir, "kwic.yaml", "server:\n  port: \"7000\"\n  data_dir: /from/file\nindex:\n  parallelism: 2\n")

	cfg, err := loadConfig(&options{configPath: path, port: "9000"})
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/from/file", cfg.Server.DataDir)
	assert.Equal(t, 2, cfg.Index.Parallelism)
}
