package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManager_WriteFileCreatesParents(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	root := t.TempDir()
	target := filepath.Join(root, "css", "nested", "s.css")

	require.NoError(t, fm.WriteFile(target, []byte("body{}"), DefaultFileWriteOptions()))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))

	require.NoError(t, fm.EnsureDirectory(filepath.Join(root, "css"), 0755), "idempotent")
}

func TestFileManager_EnsureDirectoryRejectsFile(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	root := t.TempDir()
	file := filepath.Join(root, "images")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	err := fm.EnsureDirectory(file, 0755)
	require.Error(t, err)
	assert.True(t, IsFilesystemError(err))
}

func TestFileManager_IsDirEmptyAndRemoveContents(t *testing.T) {
	fm := NewFileManager(zerolog.Nop())
	root := t.TempDir()

	empty, err := fm.IsDirEmpty(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, fm.WriteFile(filepath.Join(root, "js", "a.js"), []byte("1"), DefaultFileWriteOptions()))
	empty, err = fm.IsDirEmpty(root)
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, fm.RemoveContents(root))
	empty, err = fm.IsDirEmpty(root)
	require.NoError(t, err)
	assert.True(t, empty)
}
