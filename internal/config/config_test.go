package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:  "/home/user/.local/share/isearch",
		LogDir:   "/home/user/.local/share/isearch/log",
		LogLevel: "debug",
		Directories: DirectoriesConfig{
			Scan:    []string{"/home/user/Pictures"},
			Exclude: []string{"*.log", "*/.git/*"},
		},
		Scan:       ScanConfig{FollowSymlinks: true, HashStrategy: "selective", MaxHashSizeMB: 50},
		Duplicates: DuplicatesConfig{Method: "hash", MinFileSize: 10},
		Database:   DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/isearch/data"},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/isearch/keys/isearch.pub",
			PrivateKeyPath: "/home/user/.local/share/isearch/keys/isearch.key",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}
	require.NoError(t, m.Write(&buf, original))

	got, err := m.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, got)
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/isearch", "/home/alex")

	assert.Equal(t, "/data/isearch/log", cfg.LogDir)
	assert.Equal(t, "/data/isearch/data", cfg.Database.DataDir)
	assert.Equal(t, []string{"/home/alex/Pictures", "/home/alex/Documents"}, cfg.ScanDirectories())
	assert.Len(t, cfg.ExcludePatterns(), 6)
	assert.Equal(t, "smart", cfg.Scan.HashStrategy)
	assert.Equal(t, int64(1000*1024*1024), cfg.MaxHashSize())
	assert.Equal(t, 10000, cfg.Search.MaxResults)
	assert.Equal(t, "size_name", cfg.Duplicates.Method)
	assert.Equal(t, int64(1024), cfg.Duplicates.MinFileSize)
}

func TestManager_ReadOnto(t *testing.T) {
	base := NewConfig("/data/isearch", "/home/alex")
	input := `
log_level = "warn"

[directories]
scan = ["/srv/photos"]

[scan]
hash_strategy = "always"
`
	m := &Manager{}
	got, err := m.ReadOnto(strings.NewReader(input), base)
	require.NoError(t, err)

	assert.Equal(t, "warn", got.LogLevel)
	assert.Equal(t, []string{"/srv/photos"}, got.Directories.Scan)
	assert.Equal(t, DefaultExcludePatterns(), got.Directories.Exclude, "excludes keep their defaults")
	assert.Equal(t, "always", got.Scan.HashStrategy)
	assert.True(t, got.Scan.FollowSymlinks, "follow_symlinks keeps its default")
	assert.Equal(t, 10000, got.Search.MaxResults)
	assert.Equal(t, "/home/alex/Pictures", base.Directories.Scan[0], "base config was mutated")
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "isearch.toml")

		require.NoError(t, Init(path, NewConfig(dir, dir)))
		assert.FileExists(t, path)
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "isearch.toml")
		cfg := NewConfig(dir, dir)

		require.NoError(t, Init(path, cfg))
		assert.ErrorContains(t, Init(path, cfg), "already exists")
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "isearch.toml")
		cfg := NewConfig(dir, "/home/read-test")
		cfg.Database = DatabaseConfig{Type: "memory"}
		require.NoError(t, Init(path, cfg))

		got, err := ReadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "memory", got.Database.Type)
		assert.Equal(t, "/home/read-test/Pictures", got.Directories.Scan[0])
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/isearch.toml")
		assert.Error(t, err)
	})

	t.Run("returns error for malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "isearch.toml")
		require.NoError(t, os.WriteFile(path, []byte("log_level = [unterminated\n"), 0644))

		_, err := ReadFromFile(path)
		assert.ErrorContains(t, err, "failed to decode config")
	})
}

func TestReadFromFileWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "isearch.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\nmax_results = 25\n"), 0644))

	got, err := ReadFromFileWithDefaults(path, NewConfig(dir, dir))
	require.NoError(t, err)
	assert.Equal(t, 25, got.Search.MaxResults)
	assert.Equal(t, "size_name", got.Duplicates.Method, "unset keys keep their defaults")
}
