package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	got, err := EnsureDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "keep.txt"), []byte("x"), 0o644))

	require.NoError(t, ClearDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "subdirectories survive")
	assert.Equal(t, "sub", entries[0].Name())
}

func TestMoveWithStamp(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()

	t.Run("plain move", func(t *testing.T) {
		file := filepath.Join(src, "blatt.xlsx")
		require.NoError(t, os.WriteFile(file, []byte("eins"), 0o644))

		moved, err := MoveWithStamp(file, dest)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dest, "blatt.xlsx"), moved)
	})

	t.Run("collision appends a timestamp", func(t *testing.T) {
		file := filepath.Join(src, "blatt.xlsx")
		require.NoError(t, os.WriteFile(file, []byte("zwei"), 0o644))

		moved, err := MoveWithStamp(file, dest)
		require.NoError(t, err)
		assert.NotEqual(t, filepath.Join(dest, "blatt.xlsx"), moved)
		assert.Regexp(t, `blatt_\d{8}-\d{6}\.xlsx$`, moved)

		// the original stays untouched
		data, err := os.ReadFile(filepath.Join(dest, "blatt.xlsx"))
		require.NoError(t, err)
		assert.Equal(t, "eins", string(data))
	})
}
