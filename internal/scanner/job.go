package scanner

import (
	"context"
	"errors"
	iofs "io/fs"
	"path/filepath"
	"sync"
)

// estimateLimit caps how many files Estimate counts before giving up.
const estimateLimit = 10000

// Job is a scan running in the background. Each Job owns its own
// cancellation, so concurrent scans never share a stop flag.
type Job struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	stats *Stats
}

// Start runs Scan on a new goroutine. Cancelling ctx or calling Job.Cancel
// stops it at the next filesystem entry.
func (s *Scanner) Start(ctx context.Context, opts Options) *Job {
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		defer cancel()

		stats := s.Scan(ctx, opts)

		job.mu.Lock()
		job.stats = stats
		job.mu.Unlock()
	}()

	return job
}

// Cancel requests the scan to stop. Safe to call more than once.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed when the scan has finished.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the scan finishes and returns its statistics.
func (j *Job) Wait() *Stats {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stats
}

// Estimate is the result of a quick pre-scan count.
type Estimate struct {
	Files       int
	Directories int
	Truncated   bool // counting stopped at the file limit
}

var errEstimateLimit = errors.New("estimate limit reached")

// Estimate counts files and directories under dir for progress reporting.
// It stops after 10,000 files and ignores unreadable entries.
func (s *Scanner) Estimate(ctx context.Context, dir string) Estimate {
	var est Estimate

	err := filepath.WalkDir(dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return iofs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			est.Directories++
			return nil
		}
		est.Files++
		if est.Files > estimateLimit {
			return errEstimateLimit
		}
		return nil
	})
	if errors.Is(err, errEstimateLimit) {
		est.Truncated = true
	}
	return est
}
