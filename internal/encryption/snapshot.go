package encryption

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SnapshotExt is the file extension of sealed snapshots.
const SnapshotExt = ".db.age"

var sqliteHeader = []byte("SQLite format 3\x00")

// Backuper writes a consistent copy of a catalog database to dest.
type Backuper interface {
	BackupTo(dest string) error
}

// SnapshotName returns a unique snapshot file name for the given time.
func SnapshotName(now time.Time) string {
	return fmt.Sprintf("isearch-%s-%s%s", now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8], SnapshotExt)
}

// ExportSnapshot backs up src and seals the copy into dir. It returns the
// path of the sealed file. The plaintext copy never outlives the call.
func ExportSnapshot(src Backuper, k Keyring, dir string, now time.Time) (string, error) {
	if !k.HasKeys() {
		return "", ErrNoKeys
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "isearch-snapshot-")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "catalog.db")
	if err := src.BackupTo(plainPath); err != nil {
		return "", fmt.Errorf("backing up catalog: %w", err)
	}

	in, err := os.Open(plainPath)
	if err != nil {
		return "", fmt.Errorf("opening backup: %w", err)
	}
	defer in.Close()

	dest := filepath.Join(dir, SnapshotName(now))
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("creating snapshot: %w", err)
	}

	w := bufio.NewWriter(out)
	if err := k.Seal(bufio.NewReader(in), w); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("sealing snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("closing snapshot: %w", err)
	}
	return dest, nil
}

// ImportSnapshot opens a sealed snapshot and installs it as the database
// file at dest. dest must not be open. An existing file is replaced only
// when overwrite is set.
func ImportSnapshot(opener Opener, snapshotPath, dest string, overwrite bool) error {
	if _, err := os.Stat(dest); err == nil && !overwrite {
		return fmt.Errorf("%s already exists", dest)
	}

	in, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".import-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	if err := opener.Open(bufio.NewReader(in), w); err != nil {
		tmp.Close()
		return fmt.Errorf("opening snapshot: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	if err := checkSQLite(tmpPath); err != nil {
		return err
	}
	// Stale WAL files would be replayed over the imported database.
	for _, suffix := range []string{"-wal", "-shm"} {
		os.Remove(dest + suffix)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("installing database: %w", err)
	}
	return nil
}

func checkSQLite(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("verifying database: %w", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := f.Read(header); err != nil || !bytes.Equal(header, sqliteHeader) {
		return fmt.Errorf("snapshot does not contain a SQLite database")
	}
	return nil
}
