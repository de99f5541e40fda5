package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashChunkSize is the read buffer used when streaming file content.
const hashChunkSize = 64 * 1024

// HashReader streams r through SHA-256 and returns the lowercase hex digest.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the hex SHA-256 digest of the file at path.
// Files larger than maxSize are not read; maxSize <= 0 disables the ceiling.
func HashFile(path string, maxSize int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return "", fmt.Errorf("%s exceeds hash size ceiling (%d > %d)", path, info.Size(), maxSize)
	}

	digest, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return digest, nil
}

// TryHashFile is HashFile for callers that treat any failure as "digest unavailable".
// It returns the empty string instead of an error.
func TryHashFile(path string, maxSize int64) string {
	digest, err := HashFile(path, maxSize)
	if err != nil {
		return ""
	}
	return digest
}
