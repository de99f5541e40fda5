package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"isearch/internal/catalog"
)

// Config represents the main configuration for isearch.
type Config struct {
	BaseDir     string            `toml:"base_dir"`
	LogDir      string            `toml:"log_dir"`
	LogLevel    string            `toml:"log_level"` // "debug", "info", "warn" or "error"
	Directories DirectoriesConfig `toml:"directories"`
	Scan        ScanConfig        `toml:"scan"`
	Search      SearchConfig      `toml:"search"`
	Duplicates  DuplicatesConfig  `toml:"duplicates"`
	Database    DatabaseConfig    `toml:"database"`
	Encryption  EncryptionConfig  `toml:"encryption"`
}

// DirectoriesConfig lists the roots to scan and the glob patterns to skip.
type DirectoriesConfig struct {
	Scan    []string `toml:"scan"`
	Exclude []string `toml:"exclude"`
}

// ScanConfig holds scanner behaviour.
type ScanConfig struct {
	FollowSymlinks  bool   `toml:"follow_symlinks"`
	ScanHidden      bool   `toml:"scan_hidden"`
	CalculateHashes bool   `toml:"calculate_hashes"`
	HashStrategy    string `toml:"hash_strategy"` // "always", "never", "smart" or "selective"
	MaxHashSizeMB   int64  `toml:"max_hash_size_mb"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	MaxResults    int  `toml:"max_results"`
	CaseSensitive bool `toml:"case_sensitive"`
}

// DuplicatesConfig holds duplicate detection defaults.
type DuplicatesConfig struct {
	Method        string  `toml:"method"` // "size_name", "hash", "exact_content" or "smart"
	MinFileSize   int64   `toml:"min_file_size"`
	SizeTolerance float64 `toml:"size_tolerance"`
}

// DatabaseConfig represents configuration for the catalog database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig holds paths to the age key pair used to seal catalog snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "plain"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a new Config rooted at baseDir, with default scan
// directories under homeDir.
func NewConfig(baseDir, homeDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Directories: DirectoriesConfig{
			Scan: []string{
				filepath.Join(homeDir, "Pictures"),
				filepath.Join(homeDir, "Documents"),
			},
			Exclude: DefaultExcludePatterns(),
		},
		Scan: ScanConfig{
			FollowSymlinks:  true,
			ScanHidden:      false,
			CalculateHashes: false,
			HashStrategy:    "smart",
			MaxHashSizeMB:   1000,
		},
		Search: SearchConfig{
			MaxResults: 10000,
		},
		Duplicates: DuplicatesConfig{
			Method:        "size_name",
			MinFileSize:   1024,
			SizeTolerance: 0.05,
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "isearch.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "isearch.key"),
		},
	}
}

// DefaultExcludePatterns returns the patterns skipped when none are configured.
func DefaultExcludePatterns() []string {
	return []string{"*.tmp", "*.log", "*/.git/*", "*/node_modules/*", "*/__pycache__/*", "*.pyc"}
}

// ScanDirectories returns the configured scan roots.
func (c *Config) ScanDirectories() []string {
	return c.Directories.Scan
}

// ExcludePatterns returns the configured exclusion globs.
func (c *Config) ExcludePatterns() []string {
	return c.Directories.Exclude
}

// MaxHashSize returns the hashing size ceiling in bytes.
func (c *Config) MaxHashSize() int64 {
	return c.Scan.MaxHashSizeMB * 1024 * 1024
}

var _ catalog.ConfigProvider = (*Config)(nil)

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadOnto decodes r over a copy of base, so keys absent from r keep base's values.
func (m *Manager) ReadOnto(r io.Reader, base *Config) (*Config, error) {
	cfg := *base
	cfg.Directories.Scan = append([]string(nil), base.Directories.Scan...)
	cfg.Directories.Exclude = append([]string(nil), base.Directories.Exclude...)
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// ReadFromFileWithDefaults reads the config at path layered over defaults.
func ReadFromFileWithDefaults(path string, defaults *Config) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.ReadOnto(f, defaults)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
