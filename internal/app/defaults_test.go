package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("ISEARCH_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("ISEARCH_HOME", "/custom/isearch")

		d, err := GetDefaults()
		require.NoError(t, err)
		assert.Equal(t, "/custom/config.toml", d.ConfigPath)
		assert.Equal(t, "/custom/isearch", d.BaseDir)
		assert.Equal(t, "/custom/isearch/log", d.LogDir)
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("ISEARCH_CONFIG_PATH", "")
		t.Setenv("ISEARCH_HOME", "")

		d, err := GetDefaults()
		require.NoError(t, err)

		homeDir, err := os.UserHomeDir()
		require.NoError(t, err)
		wantBase := filepath.Join(homeDir, ".local", "share", "isearch")

		assert.Equal(t, filepath.Join(homeDir, ".config", "isearch.toml"), d.ConfigPath)
		assert.Equal(t, wantBase, d.BaseDir)
		assert.Equal(t, filepath.Join(wantBase, "log"), d.LogDir)
	})
}

func TestDefaults_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	d := &Defaults{
		ConfigPath: filepath.Join(dir, "isearch.toml"),
		BaseDir:    filepath.Join(dir, "base"),
		HomeDir:    "/home/tester",
	}

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := d.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "size_name", cfg.Duplicates.Method)
		assert.Equal(t, []string{"/home/tester/Pictures", "/home/tester/Documents"}, cfg.Directories.Scan)
	})

	t.Run("file overrides individual keys", func(t *testing.T) {
		require.NoError(t, os.WriteFile(d.ConfigPath, []byte("[duplicates]\nmethod = \"hash\"\n"), 0644))

		cfg, err := d.LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "hash", cfg.Duplicates.Method)
		assert.Equal(t, int64(1024), cfg.Duplicates.MinFileSize, "unset keys keep their defaults")
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(d.ConfigPath, []byte("not = [valid"), 0644))

		_, err := d.LoadConfig()
		assert.Error(t, err)
	})
}
