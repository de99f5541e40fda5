package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve converts a raw user-supplied path into a clean absolute path.
// When mustExist is set the path is also stat'ed.
func Resolve(rawPath string, mustExist bool) (string, error) {
	if strings.HasPrefix(rawPath, "~/") || rawPath == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home directory: %w", err)
		}
		rawPath = filepath.Join(home, strings.TrimPrefix(rawPath, "~"))
	}

	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	if mustExist {
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("stat path: %w", err)
		}
	}
	return absPath, nil
}

// IsHidden reports whether a base name denotes a dotfile.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Extension returns the lowercased extension of name including the dot,
// or "" when there is none. A leading dot alone (".bashrc") is not an extension.
func Extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return strings.ToLower(ext)
}
