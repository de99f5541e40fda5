// Package duplicate finds groups of duplicate files in the catalog and
// recommends which copy to keep.
package duplicate

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"isearch/internal/catalog"
	"isearch/internal/fs"
	"isearch/internal/similarity"
)

// ErrUnknownMethod is returned for a detection method name that is not supported.
var ErrUnknownMethod = errors.New("unknown detection method")

// Method selects the grouping algorithm.
type Method string

const (
	MethodSizeName     Method = "size_name"
	MethodHash         Method = "hash"
	MethodExactContent Method = "exact_content"
	MethodSmart        Method = "smart"
)

// ParseMethod validates a method name.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case MethodSizeName, MethodHash, MethodExactContent, MethodSmart:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

const (
	// DefaultMaxHashSize bounds on-demand hashing for the hash method.
	DefaultMaxHashSize = 512 * 1024 * 1024
	// exactContentMaxSize is the fixed ceiling for the exact_content method.
	exactContentMaxSize = 100 * 1024 * 1024
	// smartThreshold is the minimum score for joining a smart cluster.
	smartThreshold = 0.7
)

// Options controls one detection run.
type Options struct {
	Method        Method
	MinFileSize   int64
	SizeTolerance float64 // smart method only, fraction of size (0.05 = 5%)

	// When RestrictRoots is set only files under Roots are considered;
	// an empty Roots then matches nothing.
	RestrictRoots bool
	Roots         []string
}

// Detector groups catalog entries into duplicate sets.
type Detector struct {
	store       catalog.Store
	logger      catalog.Logger
	workers     int
	maxHashSize int64
}

// NewDetector creates a Detector reading from store. A nil logger falls back to NopLogger.
func NewDetector(store catalog.Store, logger catalog.Logger) *Detector {
	if logger == nil {
		logger = catalog.NewNopLogger()
	}
	return &Detector{
		store:       store,
		logger:      logger,
		workers:     runtime.NumCPU(),
		maxHashSize: DefaultMaxHashSize,
	}
}

// SetMaxHashSize overrides the on-demand hashing ceiling of the hash method.
func (d *Detector) SetMaxHashSize(n int64) {
	d.maxHashSize = n
}

// Find returns the duplicate groups under opts. Every group has at least two files.
func (d *Detector) Find(opts Options) ([]Group, error) {
	method, err := ParseMethod(string(opts.Method))
	if err != nil {
		return nil, err
	}

	q := catalog.Query{}
	if opts.MinFileSize > 0 {
		minSize := opts.MinFileSize
		q.MinSize = &minSize
	}
	files, err := d.store.Search(q)
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	if opts.RestrictRoots {
		before := len(files)
		files = FilterByRoots(files, opts.Roots)
		d.logger.Debug("filtered candidates by directory", "before", before, "after", len(files))
	}

	return d.FindIn(files, method, opts.SizeTolerance)
}

// FindIn runs method over a caller-supplied candidate list.
func (d *Detector) FindIn(files []*catalog.FileRecord, method Method, tolerance float64) ([]Group, error) {
	switch method {
	case MethodSizeName:
		return GroupBySizeName(files), nil
	case MethodHash:
		return d.findByHash(files), nil
	case MethodExactContent:
		return d.findByContent(files), nil
	case MethodSmart:
		return findSmart(files, tolerance), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// findByHash groups by content digest, reusing stored digests and computing
// and persisting the missing ones.
func (d *Detector) findByHash(files []*catalog.FileRecord) []Group {
	var missing []int
	for i, f := range files {
		if !f.HasHash() {
			missing = append(missing, i)
		}
	}
	d.logger.Info("hashing duplicate candidates",
		"stored", len(files)-len(missing), "to_compute", len(missing))

	digests := d.hashAll(files, missing, d.maxHashSize)

	hashed := make([]*catalog.FileRecord, 0, len(files))
	for i, f := range files {
		digest, computed := digests[i]
		switch {
		case f.HasHash():
			hashed = append(hashed, f)
		case computed && digest != "":
			if !d.store.UpdateHash(f.Path, digest) {
				d.logger.Debug("could not persist digest", "path", f.Path)
			}
			rec := *f
			rec.Hash = digest
			hashed = append(hashed, &rec)
		}
	}

	groups := GroupByStoredHash(hashed)
	d.logger.Info("found hash duplicate groups", "groups", len(groups))
	return groups
}

// findByContent hashes every candidate afresh, skipping files above 100 MiB.
// Stored digests are neither read nor written.
func (d *Detector) findByContent(files []*catalog.FileRecord) []Group {
	var eligible []int
	for i, f := range files {
		if f.Size <= exactContentMaxSize {
			eligible = append(eligible, i)
		}
	}
	digests := d.hashAll(files, eligible, exactContentMaxSize)

	var keys []string
	byDigest := make(map[string][]*catalog.FileRecord)
	for _, i := range eligible {
		digest := digests[i]
		if digest == "" {
			continue
		}
		if _, seen := byDigest[digest]; !seen {
			keys = append(keys, digest)
		}
		byDigest[digest] = append(byDigest[digest], files[i])
	}

	var groups []Group
	for _, digest := range keys {
		if members := byDigest[digest]; len(members) > 1 {
			groups = append(groups, Group{
				ID:    "content_" + digest[:8],
				Key:   Key{Hash: digest},
				Files: members,
			})
		}
	}
	return groups
}

// hashAll computes digests for files[idx] concurrently. Files that cannot
// be read map to "".
func (d *Detector) hashAll(files []*catalog.FileRecord, idx []int, maxSize int64) map[int]string {
	results := make([]string, len(idx))

	var g errgroup.Group
	g.SetLimit(max(1, d.workers))
	for n, i := range idx {
		n := n
		path := files[i].Path
		g.Go(func() error {
			digest, err := fs.HashFile(path, maxSize)
			if err != nil {
				d.logger.Debug("cannot hash file", "path", path, "error", err)
				return nil
			}
			results[n] = digest
			return nil
		})
	}
	_ = g.Wait() // workers never fail; unreadable files are skipped

	out := make(map[int]string, len(idx))
	for n, i := range idx {
		out[i] = results[n]
	}
	return out
}

// findSmart buckets by normalized name, type and size bucket, then clusters
// each bucket greedily by weighted similarity.
func findSmart(files []*catalog.FileRecord, tolerance float64) []Group {
	sorted := append([]*catalog.FileRecord(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	order, buckets := groupBy(sorted, func(f *catalog.FileRecord) (Key, bool) {
		return Key{
			BaseName:   BaseName(f.Filename),
			FileType:   f.FileType,
			SizeBucket: SizeBucket(f.Size, tolerance),
		}, true
	})

	var groups []Group
	for _, k := range order {
		members := buckets[k]
		if len(members) < 2 {
			continue
		}
		for _, cluster := range clusterSimilar(members) {
			if len(cluster) < 2 {
				continue
			}
			key := k
			key.Cluster = len(groups) + 1
			groups = append(groups, Group{
				ID:    fmt.Sprintf("smart_group_%d", key.Cluster),
				Key:   key,
				Files: cluster,
			})
		}
	}
	return groups
}

// clusterSimilar assigns each file to the best-scoring existing cluster
// above the threshold, comparing against the cluster's first member.
func clusterSimilar(files []*catalog.FileRecord) [][]*catalog.FileRecord {
	var clusters [][]*catalog.FileRecord
	for _, f := range files {
		best := -1
		bestScore := 0.0
		for i, c := range clusters {
			score := pairScore(f, c[0])
			if score > bestScore && score > smartThreshold {
				best, bestScore = i, score
			}
		}
		if best >= 0 {
			clusters[best] = append(clusters[best], f)
		} else {
			clusters = append(clusters, []*catalog.FileRecord{f})
		}
	}
	return clusters
}

func pairScore(a, b *catalog.FileRecord) float64 {
	typeMatch := 0.0
	if a.FileType == b.FileType {
		typeMatch = 1
	}
	return similarity.Strings(a.Filename, b.Filename)*0.5 +
		similarity.Sizes(a.Size, b.Size)*0.3 +
		typeMatch*0.2
}

var copyMarkers = []*regexp.Regexp{
	regexp.MustCompile(` \(\d+\)`),
	regexp.MustCompile(` - copy`),
	regexp.MustCompile(`_copy`),
	regexp.MustCompile(` copy`),
	regexp.MustCompile(`\.bak$`),
	regexp.MustCompile(`\.backup$`),
}

// BaseName normalizes a filename for smart matching: lowercased, copy
// markers removed, extension dropped.
func BaseName(filename string) string {
	base := strings.ToLower(filename)
	for _, re := range copyMarkers {
		base = re.ReplaceAllString(base, "")
	}
	if ext := fs.Extension(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// SizeBucket maps size to a bucket whose width is tolerance*size, at least 1 KiB.
func SizeBucket(size int64, tolerance float64) int64 {
	width := max(int64(1024), int64(float64(size)*tolerance))
	return size / width
}
