//go:build !linux && !darwin

package fs

import (
	"io/fs"
	"time"
)

// CreatedTime falls back to the modification time where no creation time is exposed.
func CreatedTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
