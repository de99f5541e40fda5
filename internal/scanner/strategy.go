package scanner

import (
	"fmt"
	"strings"

	"isearch/internal/catalog"
)

// HashStrategy decides which files get a content digest during a scan.
type HashStrategy string

const (
	HashAlways    HashStrategy = "always"
	HashNever     HashStrategy = "never"
	HashSmart     HashStrategy = "smart"
	HashSelective HashStrategy = "selective"
)

const (
	kib = int64(1024)
	mib = 1024 * kib
)

// selectiveExtensions are hashed by the selective strategy up to 10 MiB.
var selectiveExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".pdf": true, ".mp3": true, ".mp4": true,
}

// ParseHashStrategy converts a configured name into a HashStrategy.
// An empty name selects HashSmart.
func ParseHashStrategy(name string) (HashStrategy, error) {
	switch s := HashStrategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return HashSmart, nil
	case HashAlways, HashNever, HashSmart, HashSelective:
		return s, nil
	default:
		return "", fmt.Errorf("unknown hash strategy: %q", name)
	}
}

// ShouldHash reports whether a file with the given lowercased extension and
// size is eligible for hashing. Files above maxHashSize are never eligible;
// maxHashSize <= 0 disables that ceiling.
func (s HashStrategy) ShouldHash(ext string, size, maxHashSize int64) bool {
	if s == HashNever {
		return false
	}
	if maxHashSize > 0 && size > maxHashSize {
		return false
	}
	if size == 0 {
		return true
	}

	switch s {
	case HashAlways:
		return true
	case HashSelective:
		if size <= 100*kib {
			return true
		}
		return selectiveExtensions[ext] && size <= 10*mib
	default: // HashSmart
		if size < mib {
			return true
		}
		switch catalog.FileTypeForExtension(ext) {
		case catalog.FileTypeImage, catalog.FileTypeVideo, catalog.FileTypeAudio:
			return size <= 50*mib
		case catalog.FileTypeDocument:
			return size <= 10*mib
		case catalog.FileTypeArchive:
			return size <= 100*mib
		default:
			return size <= 5*mib
		}
	}
}
