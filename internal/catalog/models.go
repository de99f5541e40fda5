package catalog

import "time"

// FileRecord is one cataloged file, keyed by its absolute path.
type FileRecord struct {
	ID            int64
	Path          string // Absolute path, unique
	Filename      string
	Directory     string // Parent directory
	Size          int64
	ModifiedDate  time.Time
	CreatedDate   *time.Time // Birth time, or ctime where birth time is unavailable
	FileType      FileType
	Extension     string // Lowercased, including the leading dot
	Hash          string // Hex SHA-256 content digest; empty until computed
	QualityScore  float64
	IsAIEnhanced  bool
	AIConfidence  float64
	MediaAnalysis string
	IsHidden      bool
	IsSymlink     bool
	ScanDate      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasHash reports whether a content digest has been stored for the file.
func (r *FileRecord) HasHash() bool {
	return r.Hash != ""
}

// Changed reports whether the change-detection fingerprint (size, modified time)
// differs between the stored record and a fresh observation.
func (r *FileRecord) Changed(size int64, modified time.Time) bool {
	return r.Size != size || !r.ModifiedDate.Equal(modified)
}

// SessionStatus is the lifecycle state of a scan session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionError     SessionStatus = "error"
)

// Terminal reports whether the status is a finished state.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled || s == SessionError
}

// SessionCounters are the progress counters recorded on a scan session.
type SessionCounters struct {
	FilesScanned int
	FilesAdded   int
	FilesUpdated int
}

// ScanSession records one scanner invocation across one or more directories.
type ScanSession struct {
	ID                 int64
	StartTime          time.Time
	EndTime            *time.Time // nil while running
	Status             SessionStatus
	FilesScanned       int
	FilesAdded         int
	FilesUpdated       int
	FilesRemoved       int
	DirectoriesScanned []string
	ErrorMessage       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TypeCount is the per-file-type breakdown returned by Store.Stats.
type TypeCount struct {
	FileType FileType
	Count    int64
	Size     int64
}

// Stats aggregates the catalog contents.
type Stats struct {
	TotalFiles   int64
	TotalSize    int64
	FileTypes    []TypeCount // Ordered by count, descending
	RecentFiles  int64       // Files scanned in the last 7 days
	DatabasePath string
}
