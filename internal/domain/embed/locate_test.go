package embed

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
}

func TestResolveExecutableGlob(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "editor"), 0o755))
	writeExecutable(t, filepath.Join(root, "b", "1.90", "editor"))
	writeExecutable(t, filepath.Join(root, "c", "1.91", "editor"))
	t.Setenv("EMBEDHOST_TEST_ROOT", root)

	got, err := ResolveExecutable("$EMBEDHOST_TEST_ROOT/**/editor")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b", "1.90", "editor"), got)
}

func TestResolveExecutableNoMatch(t *testing.T) {
	root := t.TempDir()

	_, err := ResolveExecutable(filepath.Join(root, "*", "editor"))
	assert.ErrorContains(t, err, "no executable matches")
}

func TestResolveExecutablePlainPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit")
	}
	path := filepath.Join(t.TempDir(), "editor")
	writeExecutable(t, path)

	got, err := ResolveExecutable(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = ResolveExecutable(path + "-missing")
	assert.Error(t, err)
}

func TestResolveExecutableEmpty(t *testing.T) {
	_, err := ResolveExecutable("")
	assert.Error(t, err)
}

func TestHasGlobMeta(t *testing.T) {
	assert.True(t, hasGlobMeta("a/*/b"))
	assert.True(t, hasGlobMeta("{a,b}"))
	assert.True(t, hasGlobMeta("file?.exe"))
	assert.False(t, hasGlobMeta(`C:\Program Files\Code\Code.exe`))
}
