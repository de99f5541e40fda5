package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"isearch/internal/catalog"
)

// WriteFile creates path (and its parents) with content and an optional
// modification time. A zero mtime leaves the time the OS assigned.
func WriteFile(t *testing.T, path string, content []byte, mtime time.Time) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
}

// WriteTree creates every file in files under root. Keys are slash-separated
// paths relative to root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), []byte(content), time.Time{})
	}
}

// Record builds a catalog record for a file that does not need to exist on disk.
func Record(path string, size int64, modified time.Time) *catalog.FileRecord {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	return &catalog.FileRecord{
		Path:         path,
		Filename:     name,
		Directory:    filepath.Dir(path),
		Size:         size,
		ModifiedDate: modified,
		FileType:     catalog.FileTypeForExtension(ext),
		Extension:    ext,
	}
}
