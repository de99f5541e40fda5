package catalog

import (
	"errors"
	"time"
)

// ErrSessionFinished is returned when updating a scan session that already
// reached a terminal status.
var ErrSessionFinished = errors.New("scan session already finished")

// Query holds the filters accepted by Store.Search. Zero values mean "no filter".
type Query struct {
	Text           string   // Substring to match (case-insensitive LIKE)
	FileType       FileType // Exact file type
	Directory      string   // Directory prefix
	MinSize        *int64
	MaxSize        *int64
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
	SearchPath     bool // Match Text against the full path instead of the filename
	// Candidates broadens a Text query to every row with a non-null value in
	// the searched field. Used by callers that apply a regex themselves.
	Candidates bool
	Limit      int // Values <= 0 return every match
}

// Store is the sole authority for persisted file and scan session state.
// Every method is serialized by the implementation.
type Store interface {
	// File operations

	// UpsertFile inserts or replaces the record keyed by path and returns its row ID.
	UpsertFile(record *FileRecord) (int64, error)

	// GetFile returns the record for an exact path, or nil if it is not cataloged.
	GetFile(path string) (*FileRecord, error)

	// UpdateHash stores a content digest for an existing path.
	// Returns false when the path is unknown or the update failed; failures are logged.
	UpdateHash(path, digest string) bool

	// Search returns records matching q, ordered by filename.
	Search(q Query) ([]*FileRecord, error)

	// RemoveMissing deletes every record whose path is not in observed.
	// Must only be called after a complete, uncancelled scan.
	RemoveMissing(observed map[string]struct{}) (int, error)

	// RemoveByDirectory deletes every record under dirPath.
	RemoveByDirectory(dirPath string) (int, error)

	// RemoveByPath deletes a single record and reports whether it existed.
	RemoveByPath(path string) (bool, error)

	// Stats returns aggregate counts over the catalog.
	Stats() (*Stats, error)

	// Scan session operations

	// StartSession opens a running session for the given root directories.
	StartSession(directories []string) (int64, error)

	// UpdateSession records progress counters and status on a running session.
	UpdateSession(id int64, counters SessionCounters, status SessionStatus) error

	// FinishSession closes a session. A non-empty errMsg marks it as errored;
	// otherwise a session previously marked cancelled stays cancelled and any
	// other session becomes completed.
	FinishSession(id int64, filesRemoved int, errMsg string) error

	// GetSession returns a session by ID, or nil if it does not exist.
	GetSession(id int64) (*ScanSession, error)

	// ListSessions returns the most recent sessions, newest first.
	ListSessions(limit int) ([]*ScanSession, error)

	// Close closes the underlying connection.
	Close() error
}

// ConfigProvider exposes the read-only configuration the core consumes.
type ConfigProvider interface {
	ScanDirectories() []string
	ExcludePatterns() []string
}
