//go:build linux

package fs

import (
	"io/fs"
	"syscall"
	"time"
)

// CreatedTime returns the best available creation timestamp for info.
// Linux stat(2) does not expose birth time, so the inode change time is used.
func CreatedTime(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
}
