//go:build darwin

package fs

import (
	"io/fs"
	"syscall"
	"time"
)

// CreatedTime returns the file's birth time.
func CreatedTime(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
}
