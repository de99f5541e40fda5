// Package scanner walks directory trees and reconciles the catalog with what
// it observes on disk.
package scanner

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"isearch/internal/catalog"
	"isearch/internal/fs"
)

// MaxFileSize is the hard ceiling above which files are not cataloged.
const MaxFileSize = 10 * 1024 * mib

// ProgressFunc receives advisory progress: files scanned so far, a total
// hint (0 when unknown) and a human-readable message.
type ProgressFunc func(scanned, total int, message string)

// Options configures one scan.
type Options struct {
	Directories     []string
	ExcludePatterns []string
	FollowSymlinks  bool
	ScanHidden      bool
	CalculateHashes bool
	HashStrategy    HashStrategy
	MaxHashSize     int64 // bytes; <= 0 means no ceiling
	Progress        ProgressFunc
	TotalHint       int // passed through to Progress, usually from Estimate
}

// Stats is the result of a scan. Scan always returns one, even on failure.
type Stats struct {
	SessionID          int64
	FilesScanned       int
	FilesAdded         int
	FilesUpdated       int
	FilesRemoved       int
	FilesHashed        int
	BytesScanned       int64
	DirectoriesScanned int
	Errors             int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
	Cancelled          bool
	Error              string // set when the scan failed as a whole
}

// Status returns the terminal session status the stats correspond to.
func (s *Stats) Status() catalog.SessionStatus {
	switch {
	case s.Error != "":
		return catalog.SessionError
	case s.Cancelled:
		return catalog.SessionCancelled
	default:
		return catalog.SessionCompleted
	}
}

func (s *Stats) counters() catalog.SessionCounters {
	return catalog.SessionCounters{
		FilesScanned: s.FilesScanned,
		FilesAdded:   s.FilesAdded,
		FilesUpdated: s.FilesUpdated,
	}
}

// Scanner reconciles the catalog against the filesystem.
type Scanner struct {
	store  catalog.Store
	logger catalog.Logger
	clock  catalog.Clock
}

// New creates a Scanner. A nil logger or clock falls back to NopLogger and RealClock.
func New(store catalog.Store, logger catalog.Logger, clock catalog.Clock) *Scanner {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	if clock == nil {
		clock = catalog.RealClock{}
	}
	return &Scanner{store: store, logger: logger, clock: clock}
}

// Scan walks opts.Directories depth-first and brings the catalog in line with
// what it finds. Cancelling ctx stops the walk at the next entry; the session
// is then recorded as cancelled and missing-file removal is skipped.
// Scan never returns an error: failures are reported in Stats.Error.
func (s *Scanner) Scan(ctx context.Context, opts Options) (stats *Stats) {
	stats = &Stats{StartTime: s.clock.Now()}

	sessionID, err := s.store.StartSession(opts.Directories)
	if err != nil {
		s.logger.Error("failed to start scan session", "error", err)
		stats.Error = err.Error()
		s.finishStats(stats)
		return stats
	}
	stats.SessionID = sessionID

	defer func() {
		if r := recover(); r != nil {
			s.fail(stats, fmt.Errorf("scan panicked: %v", r))
		}
		s.finishStats(stats)
	}()

	if err := s.run(ctx, opts, stats); err != nil {
		s.fail(stats, err)
	}
	return stats
}

func (s *Scanner) run(ctx context.Context, opts Options, stats *Stats) error {
	strategy := opts.HashStrategy
	if strategy == "" {
		strategy = HashSmart
	}

	w := &walk{
		scanner:   s,
		opts:      opts,
		strategy:  strategy,
		matcher:   fs.NewExcludeMatcher(opts.ExcludePatterns),
		observed:  make(map[string]struct{}),
		ancestors: make(map[string]struct{}),
		stats:     stats,
	}

	for _, dir := range opts.Directories {
		if ctx.Err() != nil {
			break
		}

		root, err := filepath.Abs(dir)
		if err != nil {
			s.logger.Warn("invalid scan directory", "directory", dir, "error", err)
			continue
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			s.logger.Warn("directory does not exist", "directory", root)
			continue
		}

		s.logger.Info("scanning directory", "directory", root)
		if err := w.dir(ctx, root); err != nil {
			return err
		}
		stats.DirectoriesScanned++

		if err := s.store.UpdateSession(stats.SessionID, stats.counters(), catalog.SessionRunning); err != nil {
			return fmt.Errorf("recording scan progress: %w", err)
		}
		if opts.Progress != nil {
			opts.Progress(stats.FilesScanned, opts.TotalHint, fmt.Sprintf("Scanned %s files (%s)",
				humanize.Comma(int64(stats.FilesScanned)), humanize.IBytes(uint64(stats.BytesScanned))))
		}
	}

	if ctx.Err() != nil {
		stats.Cancelled = true
		s.logger.Info("scan cancelled", "files_scanned", stats.FilesScanned)
		if err := s.store.UpdateSession(stats.SessionID, stats.counters(), catalog.SessionCancelled); err != nil {
			return fmt.Errorf("recording cancelled scan: %w", err)
		}
		if err := s.store.FinishSession(stats.SessionID, 0, ""); err != nil {
			return fmt.Errorf("finishing scan session: %w", err)
		}
		return nil
	}

	removed, err := s.store.RemoveMissing(w.observed)
	if err != nil {
		return fmt.Errorf("removing missing files: %w", err)
	}
	stats.FilesRemoved = removed

	if err := s.store.UpdateSession(stats.SessionID, stats.counters(), catalog.SessionCompleted); err != nil {
		return fmt.Errorf("recording scan results: %w", err)
	}
	if err := s.store.FinishSession(stats.SessionID, removed, ""); err != nil {
		return fmt.Errorf("finishing scan session: %w", err)
	}

	s.logger.Info("scan completed",
		"files_scanned", stats.FilesScanned,
		"files_added", stats.FilesAdded,
		"files_updated", stats.FilesUpdated,
		"files_removed", stats.FilesRemoved,
		"errors", stats.Errors)
	return nil
}

// fail records a catastrophic scan error on stats and the session.
func (s *Scanner) fail(stats *Stats, err error) {
	stats.Error = err.Error()
	s.logger.Error("scan failed", "error", err)
	if ferr := s.store.FinishSession(stats.SessionID, stats.FilesRemoved, stats.Error); ferr != nil &&
		!errors.Is(ferr, catalog.ErrSessionFinished) {
		s.logger.Error("failed to record scan failure", "session", stats.SessionID, "error", ferr)
	}
}

func (s *Scanner) finishStats(stats *Stats) {
	stats.EndTime = s.clock.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
}

// walk holds the state of one traversal.
type walk struct {
	scanner   *Scanner
	opts      Options
	strategy  HashStrategy
	matcher   *fs.ExcludeMatcher
	observed  map[string]struct{}
	ancestors map[string]struct{} // real paths of directories on the current stack
	stats     *Stats
}

// dir scans one directory. Only catalog failures are returned; filesystem
// errors are logged and tallied.
func (w *walk) dir(ctx context.Context, dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		w.scanner.logger.Debug("cannot resolve directory", "directory", dir, "error", err)
		w.stats.Errors++
		return nil
	}
	if _, seen := w.ancestors[resolved]; seen {
		w.scanner.logger.Debug("skipping symlink loop", "directory", dir, "target", resolved)
		return nil
	}
	w.ancestors[resolved] = struct{}{}
	defer delete(w.ancestors, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.scanner.logger.Warn("cannot scan directory", "directory", dir, "error", err)
		w.stats.Errors++
		return nil
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}

		name := entry.Name()
		if !w.opts.ScanHidden && fs.IsHidden(name) {
			continue
		}
		path := filepath.Join(dir, name)
		if w.matcher.Match(path) {
			continue
		}

		isLink := entry.Type()&iofs.ModeSymlink != 0
		info, err := os.Stat(path)
		if err != nil {
			if isLink && errors.Is(err, iofs.ErrNotExist) {
				continue // dangling symlink
			}
			w.scanner.logger.Debug("cannot access entry", "path", path, "error", err)
			w.stats.Errors++
			continue
		}

		switch {
		case info.Mode().IsRegular():
			if err := w.file(path, name, info, isLink); err != nil {
				return err
			}
		case info.IsDir():
			if isLink && !w.opts.FollowSymlinks {
				continue
			}
			if w.matcher.MatchDir(path) {
				continue
			}
			if err := w.dir(ctx, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// file reconciles a single regular file with its catalog row.
func (w *walk) file(path, name string, info iofs.FileInfo, isLink bool) error {
	size := info.Size()
	if size > MaxFileSize {
		w.scanner.logger.Debug("skipping large file", "path", path, "size", humanize.IBytes(uint64(size)))
		return nil
	}

	store := w.scanner.store
	modified := info.ModTime().UTC()
	ext := fs.Extension(name)

	existing, err := store.GetFile(path)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", path, err)
	}

	wantHash := w.opts.CalculateHashes && w.strategy.ShouldHash(ext, size, w.opts.MaxHashSize)

	switch {
	case existing == nil || existing.Changed(size, modified):
		created := fs.CreatedTime(info).UTC()
		rec := &catalog.FileRecord{
			Path:         path,
			Filename:     name,
			Directory:    filepath.Dir(path),
			Size:         size,
			ModifiedDate: modified,
			CreatedDate:  &created,
			FileType:     catalog.FileTypeForExtension(ext),
			Extension:    ext,
			IsHidden:     fs.IsHidden(name),
			IsSymlink:    isLink,
		}
		if wantHash {
			rec.Hash = w.hash(path)
		}
		if _, err := store.UpsertFile(rec); err != nil {
			return err
		}
		if existing == nil {
			w.stats.FilesAdded++
		} else {
			w.stats.FilesUpdated++
		}
	case wantHash && !existing.HasHash():
		// Unchanged, but hashing was enabled after it was first cataloged.
		if digest := w.hash(path); digest != "" {
			store.UpdateHash(path, digest)
		}
	}

	w.observed[path] = struct{}{}
	w.stats.FilesScanned++
	w.stats.BytesScanned += size
	return nil
}

func (w *walk) hash(path string) string {
	digest, err := fs.HashFile(path, w.opts.MaxHashSize)
	if err != nil {
		w.scanner.logger.Debug("cannot hash file", "path", path, "error", err)
		return ""
	}
	w.stats.FilesHashed++
	return digest
}
