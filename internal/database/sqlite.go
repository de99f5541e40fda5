package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"isearch/internal/catalog"
	"isearch/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements catalog.Store on an embedded SQLite file.
// SQLite is a single-writer store, so every operation holds mu for its whole
// duration and the pool is limited to one connection.
type SQLiteDatabase struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	logger catalog.Logger
	clock  catalog.Clock
}

// NewSQLiteDatabase opens the catalog at path (or ":memory:") and applies any
// pending migrations. A nil logger or clock falls back to NopLogger and RealClock.
func NewSQLiteDatabase(path string, logger catalog.Logger, clock catalog.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	s := NewSQLiteDatabaseFromDB(db, logger, clock)
	s.path = path
	s.logger.Debug("catalog opened", "path", path)
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing, already migrated connection.
func NewSQLiteDatabaseFromDB(db *sql.DB, logger catalog.Logger, clock catalog.Clock) *SQLiteDatabase {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	if clock == nil {
		clock = catalog.RealClock{}
	}
	return &SQLiteDatabase{db: db, logger: logger, clock: clock}
}

// OpenConnection opens and configures a SQLite connection with the PRAGMAs the
// catalog relies on. Exported for tools and tests.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}
	return db, nil
}

const fileColumns = `id, path, filename, directory, size, modified_date, created_date,
	file_type, extension, hash, quality_score, is_ai_enhanced, ai_confidence,
	media_analysis, is_hidden, is_symlink, scan_date, created_at, updated_at`

// File operations

func (s *SQLiteDatabase) UpsertFile(record *catalog.FileRecord) (int64, error) {
	if record == nil || record.Path == "" {
		return 0, errors.New("file record requires a path")
	}
	if record.FileType == "" {
		return 0, fmt.Errorf("file record %s requires a file type", record.Path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO files (
			path, filename, directory, size, modified_date, created_date,
			file_type, extension, hash, quality_score, is_ai_enhanced, ai_confidence,
			media_analysis, is_hidden, is_symlink, scan_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename = excluded.filename,
			directory = excluded.directory,
			size = excluded.size,
			modified_date = excluded.modified_date,
			created_date = excluded.created_date,
			file_type = excluded.file_type,
			extension = excluded.extension,
			hash = excluded.hash,
			quality_score = excluded.quality_score,
			is_ai_enhanced = excluded.is_ai_enhanced,
			ai_confidence = excluded.ai_confidence,
			media_analysis = excluded.media_analysis,
			is_hidden = excluded.is_hidden,
			is_symlink = excluded.is_symlink,
			scan_date = excluded.scan_date,
			updated_at = excluded.updated_at
		RETURNING id`,
		record.Path,
		record.Filename,
		record.Directory,
		record.Size,
		record.ModifiedDate.UTC(),
		nullTime(record.CreatedDate),
		string(record.FileType),
		record.Extension,
		nullString(record.Hash),
		record.QualityScore,
		record.IsAIEnhanced,
		record.AIConfidence,
		nullString(record.MediaAnalysis),
		record.IsHidden,
		record.IsSymlink,
		now,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting file %s: %w", record.Path, err)
	}
	return id, nil
}

func (s *SQLiteDatabase) GetFile(path string) (*catalog.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path)
	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by path: %w", err)
	}
	return rec, nil
}

func (s *SQLiteDatabase) UpdateHash(path, digest string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE files SET hash = ?, updated_at = ? WHERE path = ?",
		nullString(digest), s.clock.Now().UTC(), path)
	if err != nil {
		s.logger.Error("failed to update hash", "path", path, "error", err)
		return false
	}
	n, err := res.RowsAffected()
	if err != nil {
		s.logger.Error("failed to update hash", "path", path, "error", err)
		return false
	}
	return n > 0
}

func (s *SQLiteDatabase) Search(q catalog.Query) ([]*catalog.FileRecord, error) {
	var (
		conditions []string
		args       []any
	)

	field := "filename"
	if q.SearchPath {
		field = "path"
	}
	if q.Text != "" {
		if q.Candidates {
			conditions = append(conditions, field+" IS NOT NULL")
		} else {
			conditions = append(conditions, field+` LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(q.Text)+"%")
		}
	}
	if q.FileType != "" {
		conditions = append(conditions, "file_type = ?")
		args = append(args, string(q.FileType))
	}
	if q.Directory != "" {
		conditions = append(conditions, `directory LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(q.Directory)+"%")
	}
	if q.MinSize != nil {
		conditions = append(conditions, "size >= ?")
		args = append(args, *q.MinSize)
	}
	if q.MaxSize != nil {
		conditions = append(conditions, "size <= ?")
		args = append(args, *q.MaxSize)
	}
	if q.ModifiedAfter != nil {
		conditions = append(conditions, "modified_date >= ?")
		args = append(args, q.ModifiedAfter.UTC())
	}
	if q.ModifiedBefore != nil {
		conditions = append(conditions, "modified_date <= ?")
		args = append(args, q.ModifiedBefore.UTC())
	}

	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}
	query := "SELECT " + fileColumns + " FROM files WHERE " + where + " ORDER BY filename ASC, path ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching files: %w", err)
	}
	defer rows.Close()

	var result []*catalog.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("reading search result: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching files: %w", err)
	}
	return result, nil
}

func (s *SQLiteDatabase) RemoveMissing(observed map[string]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id, path FROM files")
	if err != nil {
		return 0, fmt.Errorf("listing files: %w", err)
	}
	var missing []int64
	for rows.Next() {
		var (
			id   int64
			path string
		)
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("reading file row: %w", err)
		}
		if _, ok := observed[path]; !ok {
			missing = append(missing, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("listing files: %w", err)
	}

	if len(missing) > 0 {
		stmt, err := tx.PrepareContext(ctx, "DELETE FROM files WHERE id = ?")
		if err != nil {
			return 0, fmt.Errorf("preparing delete: %w", err)
		}
		defer stmt.Close()
		for _, id := range missing {
			if _, err := stmt.ExecContext(ctx, id); err != nil {
				return 0, fmt.Errorf("deleting file %d: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	if len(missing) > 0 {
		s.logger.Info("removed missing files", "count", len(missing))
	}
	return len(missing), nil
}

func (s *SQLiteDatabase) RemoveByDirectory(dirPath string) (int, error) {
	trimmed := strings.TrimRight(dirPath, "/")
	if trimmed == "" {
		trimmed = "/"
	}
	prefix := strings.TrimSuffix(trimmed, "/") + "/"

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM files WHERE path LIKE ? ESCAPE '\' OR directory = ?`,
		escapeLike(prefix)+"%", trimmed)
	if err != nil {
		return 0, fmt.Errorf("removing files under %s: %w", dirPath, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("removing files under %s: %w", dirPath, err)
	}
	if n > 0 {
		s.logger.Info("removed files from directory", "directory", dirPath, "count", n)
	}
	return int(n), nil
}

func (s *SQLiteDatabase) RemoveByPath(path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM files WHERE path = ?", path)
	if err != nil {
		return false, fmt.Errorf("removing file %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing file %s: %w", path, err)
	}
	if n > 0 {
		s.logger.Info("removed file from catalog", "path", path)
	}
	return n > 0, nil
}

func (s *SQLiteDatabase) Stats() (*catalog.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &catalog.Stats{DatabasePath: s.path}
	if err := s.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files").
		Scan(&stats.TotalFiles, &stats.TotalSize); err != nil {
		return nil, fmt.Errorf("counting files: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT file_type, COUNT(*) AS n, COALESCE(SUM(size), 0)
		FROM files
		GROUP BY file_type
		ORDER BY n DESC, file_type ASC`)
	if err != nil {
		return nil, fmt.Errorf("grouping by file type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			tc catalog.TypeCount
			ft string
		)
		if err := rows.Scan(&ft, &tc.Count, &tc.Size); err != nil {
			return nil, fmt.Errorf("reading file type row: %w", err)
		}
		tc.FileType = catalog.FileType(ft)
		stats.FileTypes = append(stats.FileTypes, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grouping by file type: %w", err)
	}

	since := s.clock.Now().Add(-7 * 24 * time.Hour).UTC()
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files WHERE scan_date >= ?", since).
		Scan(&stats.RecentFiles); err != nil {
		return nil, fmt.Errorf("counting recent files: %w", err)
	}
	return stats, nil
}

// Scan session operations

func (s *SQLiteDatabase) StartSession(directories []string) (int64, error) {
	dirs, err := json.Marshal(directories)
	if err != nil {
		return 0, fmt.Errorf("encoding directories: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	res, err := s.db.Exec(`
		INSERT INTO scan_sessions (start_time, status, directories_scanned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		now, string(catalog.SessionRunning), string(dirs), now, now)
	if err != nil {
		return 0, fmt.Errorf("starting scan session: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteDatabase) UpdateSession(id int64, counters catalog.SessionCounters, status catalog.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE scan_sessions
		SET files_scanned = ?, files_added = ?, files_updated = ?, status = ?, updated_at = ?
		WHERE id = ? AND end_time IS NULL`,
		counters.FilesScanned, counters.FilesAdded, counters.FilesUpdated, string(status),
		s.clock.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating scan session %d: %w", id, err)
	}
	return s.checkSessionWrite(res, id)
}

func (s *SQLiteDatabase) FinishSession(id int64, filesRemoved int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE scan_sessions
		SET end_time = ?,
			status = CASE
				WHEN ? != '' THEN 'error'
				WHEN status = 'cancelled' THEN 'cancelled'
				ELSE 'completed'
			END,
			files_removed = ?,
			error_message = ?,
			updated_at = ?
		WHERE id = ? AND end_time IS NULL`,
		now, errMsg, filesRemoved, nullString(errMsg), now, id)
	if err != nil {
		return fmt.Errorf("finishing scan session %d: %w", id, err)
	}
	return s.checkSessionWrite(res, id)
}

// checkSessionWrite distinguishes an unknown session from a finished one when
// an update touched no rows. Must be called with mu held.
func (s *SQLiteDatabase) checkSessionWrite(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking scan session %d: %w", id, err)
	}
	if n > 0 {
		return nil
	}
	var exists int
	err = s.db.QueryRow("SELECT 1 FROM scan_sessions WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("scan session %d not found", id)
	}
	if err != nil {
		return fmt.Errorf("checking scan session %d: %w", id, err)
	}
	return fmt.Errorf("scan session %d: %w", id, catalog.ErrSessionFinished)
}

const sessionColumns = `id, start_time, end_time, status, files_scanned, files_added,
	files_updated, files_removed, directories_scanned, error_message, created_at, updated_at`

func (s *SQLiteDatabase) GetSession(id int64) (*catalog.ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := scanSession(s.db.QueryRow("SELECT "+sessionColumns+" FROM scan_sessions WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding scan session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteDatabase) ListSessions(limit int) ([]*catalog.ScanSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT "+sessionColumns+" FROM scan_sessions ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan sessions: %w", err)
	}
	defer rows.Close()

	var result []*catalog.ScanSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("reading scan session: %w", err)
		}
		result = append(result, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing scan sessions: %w", err)
	}
	return result, nil
}

// Maintenance

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Size returns the size of the database file in bytes, or 0 when it has no file.
func (s *SQLiteDatabase) Size() int64 {
	if s.path == "" || strings.HasPrefix(s.path, ":memory:") {
		return 0
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// Vacuum rebuilds the database file to reclaim free pages.
func (s *SQLiteDatabase) Vacuum() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuuming database: %w", err)
	}
	s.logger.Info("database vacuumed", "path", s.path)
	return nil
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return migrations.CheckStatus(s.db)
}

// BackupTo writes a consistent copy of the catalog to destPath using VACUUM INTO.
// destPath must not exist.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements catalog.Store
var _ catalog.Store = (*SQLiteDatabase)(nil)

// Schema returns the CREATE statements for the catalog tables and indexes,
// excluding SQLite internals and the migration bookkeeping table.
func (s *SQLiteDatabase) Schema() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND name != 'schema_migrations'
		  AND tbl_name != 'schema_migrations'
		ORDER BY
		  CASE type
		    WHEN 'table' THEN 1
		    WHEN 'index' THEN 2
		  END,
		  name`)
	if err != nil {
		return "", fmt.Errorf("reading schema: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", fmt.Errorf("reading schema: %w", err)
		}
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading schema: %w", err)
	}
	return b.String(), nil
}
