// Package search layers filtered, regex and similarity queries over the catalog.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"isearch/internal/catalog"
	"isearch/internal/duplicate"
	"isearch/internal/similarity"
)

// DefaultLimit caps result sets when Filters.Limit is unset.
const DefaultLimit = 10000

// DefaultSimilarityThreshold is the minimum score for SearchSimilar.
const DefaultSimilarityThreshold = 0.8

// ErrUnknownMethod is returned by SearchDuplicates for an unsupported method.
var ErrUnknownMethod = errors.New("unknown duplicate search method")

// Filters describes one search request. Zero values mean "no filter".
type Filters struct {
	Query          string
	FileTypes      []catalog.FileType
	Directories    []string // Directory prefixes; a file matches if any prefix does
	MinSize        *int64
	MaxSize        *int64
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
	UseRegex       bool
	SearchPath     bool // Match against the full path instead of the filename
	CaseSensitive  bool
	Limit          int
}

// Similar is a SearchSimilar hit.
type Similar struct {
	File  *catalog.FileRecord
	Score float64
}

// Engine answers search requests against a catalog.Store.
type Engine struct {
	store  catalog.Store
	logger catalog.Logger
}

// NewEngine creates an Engine. A nil logger falls back to NopLogger.
func NewEngine(store catalog.Store, logger catalog.Logger) *Engine {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	return &Engine{store: store, logger: logger}
}

// Search runs f against the catalog. An invalid regular expression yields no
// results and a logged error rather than a returned error.
func (e *Engine) Search(f Filters) ([]*catalog.FileRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var re *regexp.Regexp
	if f.UseRegex && f.Query != "" {
		expr := f.Query
		if !f.CaseSensitive {
			expr = "(?i)" + expr
		}
		var err error
		re, err = regexp.Compile(expr)
		if err != nil {
			e.logger.Error("invalid regex pattern", "pattern", f.Query, "error", err)
			return nil, nil
		}
	}

	caseFilter := f.Query != "" && !f.UseRegex && f.CaseSensitive
	postFiltered := re != nil || caseFilter || len(f.Directories) > 0

	base := catalog.Query{
		Text:           f.Query,
		MinSize:        f.MinSize,
		MaxSize:        f.MaxSize,
		ModifiedAfter:  f.ModifiedAfter,
		ModifiedBefore: f.ModifiedBefore,
		SearchPath:     f.SearchPath,
		Candidates:     re != nil,
		Limit:          limit,
	}
	// Post-filters can drop rows, so the store must not truncate first.
	if postFiltered {
		base.Limit = 0
	}

	var results []*catalog.FileRecord
	if len(f.FileTypes) == 0 {
		rows, err := e.store.Search(base)
		if err != nil {
			return nil, fmt.Errorf("searching catalog: %w", err)
		}
		results = rows
	} else {
		for _, ft := range f.FileTypes {
			q := base
			q.FileType = ft
			rows, err := e.store.Search(q)
			if err != nil {
				return nil, fmt.Errorf("searching catalog for %s files: %w", ft, err)
			}
			results = append(results, rows...)
		}
	}

	seen := make(map[string]struct{}, len(results))
	out := make([]*catalog.FileRecord, 0, min(len(results), limit))
	for _, r := range results {
		field := r.Filename
		if f.SearchPath {
			field = r.Path
		}
		if re != nil && !re.MatchString(field) {
			continue
		}
		if caseFilter && !strings.Contains(field, f.Query) {
			continue
		}
		if len(f.Directories) > 0 && !hasAnyPrefix(r.Directory, f.Directories) {
			continue
		}
		if _, dup := seen[r.Path]; dup {
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}

	e.logger.Info("search complete", "query", f.Query, "results", len(out))
	return out, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// SearchSimilar returns files of the same type as the reference whose
// weighted name and size similarity reaches threshold, best first.
// An uncataloged reference yields no results.
func (e *Engine) SearchSimilar(path string, threshold float64) ([]Similar, error) {
	ref, err := e.store.GetFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading reference file: %w", err)
	}
	if ref == nil {
		return nil, nil
	}

	candidates, err := e.store.Search(catalog.Query{FileType: ref.FileType})
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	var hits []Similar
	for _, c := range candidates {
		if c.Path == ref.Path {
			continue
		}
		score := similarity.Strings(ref.Filename, c.Filename)*0.7 +
			similarity.Sizes(ref.Size, c.Size)*0.3
		if score >= threshold {
			hits = append(hits, Similar{File: c, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Suggestions completes a partial query from cataloged filenames and the
// words inside them. Queries shorter than two characters return nothing.
func (e *Engine) Suggestions(partial string, limit int) ([]string, error) {
	if len([]rune(partial)) < 2 || limit <= 0 {
		return nil, nil
	}

	files, err := e.store.Search(catalog.Query{Text: partial, Limit: limit * 3})
	if err != nil {
		return nil, fmt.Errorf("loading suggestion candidates: %w", err)
	}

	prefix := strings.ToLower(partial)
	set := make(map[string]struct{})
	for _, f := range files {
		if strings.HasPrefix(strings.ToLower(f.Filename), prefix) {
			set[f.Filename] = struct{}{}
		}
		for _, word := range splitWords(f.Filename) {
			if len(word) > len(partial) && strings.HasPrefix(strings.ToLower(word), prefix) {
				set[word] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func splitWords(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		switch r {
		case '.', '_', '-':
			return true
		}
		return unicode.IsSpace(r)
	})
}

// Duplicate search methods.
const (
	DuplicatesBySizeName = "size_name"
	DuplicatesByHash     = "hash"
	DuplicatesByName     = "name_only"
)

// SearchDuplicates groups catalog entries of at least minSize bytes using
// stored data only: no hashing, no directory restriction, no scoring.
func (e *Engine) SearchDuplicates(method string, minSize int64) ([]duplicate.Group, error) {
	var group func([]*catalog.FileRecord) []duplicate.Group
	switch method {
	case DuplicatesBySizeName:
		group = duplicate.GroupBySizeName
	case DuplicatesByHash:
		group = duplicate.GroupByStoredHash
	case DuplicatesByName:
		group = duplicate.GroupByName
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	q := catalog.Query{}
	if minSize > 0 {
		q.MinSize = &minSize
	}
	files, err := e.store.Search(q)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	return group(files), nil
}
