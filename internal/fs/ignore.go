package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// excludePattern is a compiled shell-style glob.
type excludePattern struct {
	pattern string
	g       glob.Glob
}

// ExcludeMatcher checks paths against shell-style exclude globs.
// Every pattern is tried against both the entry's bare name and its full path.
// Unlike filepath.Match, '*' and '?' also match '/', so "*/node_modules/*"
// excludes anything below a node_modules directory. Brace alternation
// ("*.{jpg,png}") is supported; a class mixing a range with other
// characters ("[a-cx]") is not and the pattern is skipped.
type ExcludeMatcher struct {
	patterns []excludePattern
}

// NewExcludeMatcher compiles rawPatterns. Blank lines and lines starting with
// '#' are skipped, as are patterns that cannot be compiled.
func NewExcludeMatcher(rawPatterns []string) *ExcludeMatcher {
	var patterns []excludePattern
	for _, raw := range rawPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		g, err := compileGlob(raw)
		if err != nil {
			// Bad pattern: skip rather than crash.
			continue
		}
		patterns = append(patterns, excludePattern{pattern: raw, g: g})
	}
	return &ExcludeMatcher{patterns: patterns}
}

// Len returns the number of usable patterns.
func (m *ExcludeMatcher) Len() int {
	return len(m.patterns)
}

// Match reports whether path should be excluded.
func (m *ExcludeMatcher) Match(path string) bool {
	if len(m.patterns) == 0 || path == "" {
		return false
	}

	normalized := filepath.ToSlash(path)
	name := filepath.Base(path)

	for _, p := range m.patterns {
		if p.g.Match(name) || p.g.Match(normalized) {
			return true
		}
	}
	return false
}

// MatchDir reports whether the directory at path, or everything below it,
// is excluded. A pattern like "*/.git/*" prunes the .git directory itself.
func (m *ExcludeMatcher) MatchDir(path string) bool {
	if m.Match(path) {
		return true
	}
	if len(m.patterns) == 0 || path == "" {
		return false
	}
	withSlash := strings.TrimSuffix(filepath.ToSlash(path), "/") + "/"
	for _, p := range m.patterns {
		if p.g.Match(withSlash) {
			return true
		}
	}
	return false
}

// compileGlob compiles a shell glob with no separators, so '*' and '?' also
// match '/'. A '[' with no closing ']' is matched literally.
func compileGlob(pattern string) (glob.Glob, error) {
	return glob.Compile(quoteOpenBrackets(pattern))
}

func quoteOpenBrackets(pattern string) string {
	var b strings.Builder
	for i, r := range pattern {
		if r == '[' && !strings.ContainsRune(pattern[i+1:], ']') {
			b.WriteString(`\[`)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseIgnoreFile reads a file of exclude patterns, one per line.
// Returns nil and no error if the file does not exist.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		patterns = append(patterns, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return patterns, nil
}
