package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"isearch/internal/catalog"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*catalog.FileRecord, error) {
	var (
		rec           catalog.FileRecord
		fileType      string
		createdDate   sql.NullTime
		hash          sql.NullString
		mediaAnalysis sql.NullString
	)
	err := row.Scan(
		&rec.ID,
		&rec.Path,
		&rec.Filename,
		&rec.Directory,
		&rec.Size,
		&rec.ModifiedDate,
		&createdDate,
		&fileType,
		&rec.Extension,
		&hash,
		&rec.QualityScore,
		&rec.IsAIEnhanced,
		&rec.AIConfidence,
		&mediaAnalysis,
		&rec.IsHidden,
		&rec.IsSymlink,
		&rec.ScanDate,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.FileType = catalog.FileType(fileType)
	if createdDate.Valid {
		t := createdDate.Time
		rec.CreatedDate = &t
	}
	rec.Hash = hash.String
	rec.MediaAnalysis = mediaAnalysis.String
	return &rec, nil
}

func scanSession(row rowScanner) (*catalog.ScanSession, error) {
	var (
		sess    catalog.ScanSession
		status  string
		endTime sql.NullTime
		dirs    string
		errMsg  sql.NullString
	)
	err := row.Scan(
		&sess.ID,
		&sess.StartTime,
		&endTime,
		&status,
		&sess.FilesScanned,
		&sess.FilesAdded,
		&sess.FilesUpdated,
		&sess.FilesRemoved,
		&dirs,
		&errMsg,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sess.Status = catalog.SessionStatus(status)
	if endTime.Valid {
		t := endTime.Time
		sess.EndTime = &t
	}
	sess.ErrorMessage = errMsg.String
	if err := json.Unmarshal([]byte(dirs), &sess.DirectoriesScanned); err != nil {
		return nil, fmt.Errorf("decoding directories of session %d: %w", sess.ID, err)
	}
	return &sess, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes LIKE wildcards so s matches literally under ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
