package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectInputsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	inputs, err := collectInputs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, inputs)
}

func TestCollectInputsDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xlsx", "a.XLSX", "notes.txt", "~$open.xlsx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	inputs, err := collectInputs(dir)
	require.NoError(t, err)

	// Sorted, case-insensitive extension match, lock files skipped
	assert.Equal(t, []string{
		filepath.Join(dir, "a.XLSX"),
		filepath.Join(dir, "b.xlsx"),
	}, inputs)
}

func TestCollectInputsMissing(t *testing.T) {
	_, err := collectInputs(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("out", "plan-forecast.json"),
		outputPath("out", filepath.Join("in", "plan.xlsx"), "json"))
	assert.Equal(t,
		filepath.Join("out", "demand-forecast.csv"),
		outputPath("out", "demand.xlsx", "csv"))
}
