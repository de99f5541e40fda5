// Package app wires the catalog, scanner, duplicate detector, search engine
// and snapshot keyring together from configuration for the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"isearch/internal/catalog"
	"isearch/internal/config"
	"isearch/internal/database"
	"isearch/internal/duplicate"
	"isearch/internal/encryption"
	"isearch/internal/fs"
	"isearch/internal/scanner"
	"isearch/internal/search"
)

// App is the application layer between the CLI and the core packages.
// It constructs all dependencies from config, accepts raw user paths, and
// releases the catalog and log file on Close.
type App struct {
	cfg      *config.Config
	store    *database.SQLiteDatabase
	scanner  *scanner.Scanner
	detector *duplicate.Detector
	engine   *search.Engine
	keyring  encryption.Keyring
	logger   catalog.Logger
	clock    catalog.Clock
	op       *Operation
	logFile  *os.File
}

// New creates a fully wired App from cfg. command names the CLI command
// being run. Log lines are also copied to echo when it is non-nil.
// The caller must call Close when done.
func New(cfg *config.Config, command string, echo io.Writer) (*App, error) {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	clock := catalog.RealClock{}
	op := NewOperation(command, clock.Now())
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, level, echo)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("command", command)}

	keyring, err := encryption.NewKeyringFromConfig(cfg.Encryption)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating keyring: %w", err)
	}

	store, err := database.NewDatabaseFromConfig(cfg.Database, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	if err := store.CheckMigrations(); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("catalog schema out of date: %w", err)
	}

	detector := duplicate.NewDetector(store, logger)
	if ceiling := cfg.MaxHashSize(); ceiling > 0 {
		detector.SetMaxHashSize(ceiling)
	}

	return &App{
		cfg:      cfg,
		store:    store,
		scanner:  scanner.New(store, logger, clock),
		detector: detector,
		engine:   search.NewEngine(store, logger),
		keyring:  keyring,
		logger:   logger,
		clock:    clock,
		op:       op,
		logFile:  logFile,
	}, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Fail marks the running command as failed in the closing log line.
func (a *App) Fail() { a.op.Fail() }

// ScanRequest overrides parts of the configured scan.
type ScanRequest struct {
	Directories    []string // raw paths; empty means the configured roots
	ExtraExcludes  []string
	EstimateTotals bool // pre-count files so progress carries a total
	Progress       scanner.ProgressFunc
}

// ScanOptions builds scanner options from config and req.
func (a *App) ScanOptions(ctx context.Context, req ScanRequest) (scanner.Options, error) {
	strategy, err := scanner.ParseHashStrategy(a.cfg.Scan.HashStrategy)
	if err != nil {
		return scanner.Options{}, err
	}

	raw := req.Directories
	if len(raw) == 0 {
		raw = a.cfg.ScanDirectories()
	}
	dirs := make([]string, 0, len(raw))
	for _, r := range raw {
		p, err := fs.Resolve(r, false)
		if err != nil {
			return scanner.Options{}, fmt.Errorf("resolving %s: %w", r, err)
		}
		dirs = append(dirs, p)
	}

	opts := scanner.Options{
		Directories:     dirs,
		ExcludePatterns: append(append([]string(nil), a.cfg.ExcludePatterns()...), req.ExtraExcludes...),
		FollowSymlinks:  a.cfg.Scan.FollowSymlinks,
		ScanHidden:      a.cfg.Scan.ScanHidden,
		CalculateHashes: a.cfg.Scan.CalculateHashes,
		HashStrategy:    strategy,
		MaxHashSize:     a.cfg.MaxHashSize(),
		Progress:        req.Progress,
	}
	if req.EstimateTotals {
		for _, d := range dirs {
			opts.TotalHint += a.scanner.Estimate(ctx, d).Files
		}
	}
	return opts, nil
}

// StartScan starts a background scan. Cancelling ctx or the returned Job
// stops it at the next filesystem entry.
func (a *App) StartScan(ctx context.Context, req ScanRequest) (*scanner.Job, error) {
	opts, err := a.ScanOptions(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.scanner.Start(ctx, opts), nil
}

// Search runs filters, defaulting the result cap to search.max_results.
func (a *App) Search(filters search.Filters) ([]*catalog.FileRecord, error) {
	if filters.Limit <= 0 {
		filters.Limit = a.cfg.Search.MaxResults
	}
	return a.engine.Search(filters)
}

// Similar finds files resembling the file at rawPath.
func (a *App) Similar(rawPath string, threshold float64) ([]search.Similar, error) {
	p, err := fs.Resolve(rawPath, false)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.engine.SearchSimilar(p, threshold)
}

// Suggest completes a partial query.
func (a *App) Suggest(partial string, limit int) ([]string, error) {
	return a.engine.Suggestions(partial, limit)
}

// DuplicateRequest overrides parts of the configured duplicate detection.
type DuplicateRequest struct {
	Method      string   // empty means duplicates.method
	MinFileSize int64    // <= 0 means duplicates.min_file_size
	Directories []string // raw paths; restricts candidates when Restrict is set
	Restrict    bool
}

// FindDuplicates runs the duplicate detector.
func (a *App) FindDuplicates(req DuplicateRequest) ([]duplicate.Group, error) {
	method := req.Method
	if method == "" {
		method = a.cfg.Duplicates.Method
	}
	m, err := duplicate.ParseMethod(method)
	if err != nil {
		return nil, err
	}

	minSize := req.MinFileSize
	if minSize <= 0 {
		minSize = a.cfg.Duplicates.MinFileSize
	}

	roots := make([]string, 0, len(req.Directories))
	for _, r := range req.Directories {
		p, err := fs.Resolve(r, false)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", r, err)
		}
		roots = append(roots, p)
	}

	return a.detector.Find(duplicate.Options{
		Method:        m,
		MinFileSize:   minSize,
		SizeTolerance: a.cfg.Duplicates.SizeTolerance,
		RestrictRoots: req.Restrict,
		Roots:         roots,
	})
}

// StoredDuplicates groups files using catalog data only.
func (a *App) StoredDuplicates(method string, minSize int64) ([]duplicate.Group, error) {
	return a.engine.SearchDuplicates(method, minSize)
}

// Stats summarizes the catalog.
func (a *App) Stats() (*catalog.Stats, error) {
	return a.store.Stats()
}

// History returns the most recent scan sessions.
func (a *App) History(limit int) ([]*catalog.ScanSession, error) {
	return a.store.ListSessions(limit)
}

// Session returns one scan session, or nil if unknown.
func (a *App) Session(id int64) (*catalog.ScanSession, error) {
	return a.store.GetSession(id)
}

// RemoveDirectory drops every catalog entry under rawPath. The directory
// does not need to exist anymore.
func (a *App) RemoveDirectory(rawPath string) (int, error) {
	p, err := fs.Resolve(rawPath, false)
	if err != nil {
		return 0, fmt.Errorf("resolving path: %w", err)
	}
	return a.store.RemoveByDirectory(p)
}

// Forget drops a single path from the catalog, typically after the caller
// deleted the file.
func (a *App) Forget(rawPath string) (bool, error) {
	p, err := fs.Resolve(rawPath, false)
	if err != nil {
		return false, fmt.Errorf("resolving path: %w", err)
	}
	return a.store.RemoveByPath(p)
}

// Vacuum compacts the catalog and returns its size before and after.
func (a *App) Vacuum() (before, after int64, err error) {
	before = a.store.Size()
	if err := a.store.Vacuum(); err != nil {
		return before, before, err
	}
	return before, a.store.Size(), nil
}

// Schema returns the catalog's CREATE statements.
func (a *App) Schema() (string, error) {
	return a.store.Schema()
}

// DatabasePath is the catalog file path, or ":memory:".
func (a *App) DatabasePath() string {
	return a.store.Path()
}

// HasKeys reports whether snapshot keys exist.
func (a *App) HasKeys() bool {
	return a.keyring.HasKeys()
}

// GenerateKeys creates the snapshot key pair.
func (a *App) GenerateKeys(passphrase string) error {
	if err := a.keyring.Generate(passphrase); err != nil {
		return err
	}
	a.logger.Info("generated snapshot keys",
		"public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// ExportSnapshot writes a sealed copy of the catalog into dir, defaulting
// to <base_dir>/snapshots.
func (a *App) ExportSnapshot(dir string) (string, error) {
	if dir == "" {
		dir = filepath.Join(a.cfg.BaseDir, "snapshots")
	}
	p, err := encryption.ExportSnapshot(a.store, a.keyring, dir, a.clock.Now())
	if err != nil {
		return "", err
	}
	a.logger.Info("exported snapshot", "path", p)
	return p, nil
}

// Close logs the command outcome and releases the catalog and log file.
func (a *App) Close() error {
	a.logger.Info("command finished",
		"status", a.op.Status, "elapsed", a.op.Elapsed(a.clock.Now()))

	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// ImportSnapshot replaces the configured catalog file with a sealed
// snapshot. No App may have the catalog open.
func ImportSnapshot(cfg *config.Config, snapshotPath, passphrase string, overwrite bool) (string, error) {
	if cfg.Database.Type != "sqlite" {
		return "", fmt.Errorf("snapshot import needs a sqlite database, have %q", cfg.Database.Type)
	}

	keyring, err := encryption.NewKeyringFromConfig(cfg.Encryption)
	if err != nil {
		return "", fmt.Errorf("creating keyring: %w", err)
	}
	opener, err := keyring.Unlock(passphrase)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(cfg.Database.DataDir, database.DatabaseFileName)
	if err := encryption.ImportSnapshot(opener, snapshotPath, dest, overwrite); err != nil {
		return "", err
	}
	return dest, nil
}
