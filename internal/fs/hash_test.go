package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	t.Run("digest of content", func(t *testing.T) {
		got, err := HashFile(path, 0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("respects size ceiling", func(t *testing.T) {
		_, err := HashFile(path, 5)
		assert.Error(t, err)
		assert.Empty(t, TryHashFile(path, 5))
	})

	t.Run("empty file", func(t *testing.T) {
		empty := filepath.Join(dir, "empty")
		require.NoError(t, os.WriteFile(empty, nil, 0644))
		assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", TryHashFile(empty, 1))
	})

	t.Run("missing file yields empty digest", func(t *testing.T) {
		assert.Empty(t, TryHashFile(filepath.Join(dir, "nope"), 0))
	})

	t.Run("directory is rejected", func(t *testing.T) {
		_, err := HashFile(dir, 0)
		assert.Error(t, err)
	})
}

func TestHashReader_LargeInput(t *testing.T) {
	input := strings.Repeat("x", 3*hashChunkSize+7)
	a, err := HashReader(strings.NewReader(input))
	require.NoError(t, err)
	b, err := HashReader(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
}
