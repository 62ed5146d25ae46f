// io_test.go -- tests for key ingestion and the duplicate preflight
//
// Styled with github.com/stretchr/testify, matching pphdb's test
// layer.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	var buf []byte
	for _, l := range lines {
		buf = append(buf, []byte(l+"\n")...)
	}
	require.NoError(t, os.WriteFile(fn, buf, 0600))
	return fn
}

func TestCollectKeysFromTextBasic(t *testing.T) {
	dir := t.TempDir()
	fn := writeLines(t, dir, "keys.txt", []string{"alpha", "beta", "gamma"})

	keys, values, err := collectKeysFromText([]string{fn}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}, keys)
	require.Equal(t, []uint64{0, 1, 2}, values)
}

func TestCollectKeysFromTextSkip(t *testing.T) {
	dir := t.TempDir()
	fn := writeLines(t, dir, "keys.txt", []string{"alpha", "beta", "gamma", "delta"})

	keys, _, err := collectKeysFromText([]string{fn}, 2, 0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("gamma"), []byte("delta")}, keys)
}

func TestCollectKeysFromTextRows(t *testing.T) {
	dir := t.TempDir()
	fn := writeLines(t, dir, "keys.txt", []string{"alpha", "beta", "gamma", "delta"})

	keys, _, err := collectKeysFromText([]string{fn}, 0, 2)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("alpha"), []byte("beta")}, keys)
}

func TestCollectKeysFromTextStopsAtBlankLine(t *testing.T) {
	dir := t.TempDir()
	fn := writeLines(t, dir, "keys.txt", []string{"alpha", "beta", "", "gamma"})

	keys, _, err := collectKeysFromText([]string{fn}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("alpha"), []byte("beta")}, keys)
}

func TestCheckDuplicatesRejectsDuplicate(t *testing.T) {
	keys := [][]byte{[]byte("alpha"), []byte("beta"), []byte("alpha")}
	require.Error(t, checkDuplicates(keys))
}

func TestCheckDuplicatesAllowsDistinctKeys(t *testing.T) {
	keys := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma")}
	require.NoError(t, checkDuplicates(keys))
}
