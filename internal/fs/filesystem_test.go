package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()

	t.Run("relative path becomes absolute", func(t *testing.T) {
		got, err := Resolve(".", true)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "Resolve() = %q, want absolute", got)
	})

	t.Run("missing path with mustExist", func(t *testing.T) {
		_, err := Resolve(filepath.Join(dir, "missing"), true)
		assert.Error(t, err)
	})

	t.Run("missing path without mustExist", func(t *testing.T) {
		want := filepath.Join(dir, "missing")
		got, err := Resolve(want, false)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("expands home", func(t *testing.T) {
		t.Setenv("HOME", dir)
		got, err := Resolve("~/photos", false)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "photos"), got)
	})
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"photo.JPG":      ".jpg",
		"archive.tar.gz": ".gz",
		".bashrc":        "",
		"README":         "",
	}
	for name, want := range tests {
		assert.Equal(t, want, Extension(name), "Extension(%q)", name)
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".git"))
	assert.False(t, IsHidden("git"))
}

func TestCreatedTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	before := time.Now().Add(-time.Minute)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, CreatedTime(info).Before(before), "CreatedTime() should be after %v", before)
}
