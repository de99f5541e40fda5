package duplicate

import (
	"fmt"
	"strings"

	"isearch/internal/catalog"
)

// Key identifies a duplicate group. Which fields are set depends on the
// method that produced it.
type Key struct {
	Size       int64
	Filename   string
	Hash       string
	BaseName   string
	FileType   catalog.FileType
	SizeBucket int64
	Cluster    int
}

// Group is a set of two or more files considered duplicates of each other.
type Group struct {
	ID    string
	Key   Key
	Files []*catalog.FileRecord
}

// TotalSize is the combined size of every file in the group.
func (g Group) TotalSize() int64 {
	var total int64
	for _, f := range g.Files {
		total += f.Size
	}
	return total
}

// groupBy buckets files by key, keeping first-seen key order and input order
// within each bucket. Files for which key reports false are skipped.
func groupBy[K comparable](files []*catalog.FileRecord, key func(*catalog.FileRecord) (K, bool)) ([]K, map[K][]*catalog.FileRecord) {
	var order []K
	buckets := make(map[K][]*catalog.FileRecord)
	for _, f := range files {
		k, ok := key(f)
		if !ok {
			continue
		}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], f)
	}
	return order, buckets
}

// GroupBySizeName groups files with the same size and exact filename.
func GroupBySizeName(files []*catalog.FileRecord) []Group {
	order, buckets := groupBy(files, func(f *catalog.FileRecord) (Key, bool) {
		return Key{Size: f.Size, Filename: f.Filename}, true
	})

	var groups []Group
	for _, k := range order {
		if members := buckets[k]; len(members) > 1 {
			groups = append(groups, Group{
				ID:    fmt.Sprintf("%d_%s", k.Size, k.Filename),
				Key:   k,
				Files: members,
			})
		}
	}
	return groups
}

// GroupByStoredHash groups files by the digest already recorded in the
// catalog. Files without a stored digest are ignored.
func GroupByStoredHash(files []*catalog.FileRecord) []Group {
	order, buckets := groupBy(files, func(f *catalog.FileRecord) (string, bool) {
		return f.Hash, f.HasHash()
	})

	var groups []Group
	for _, h := range order {
		if members := buckets[h]; len(members) > 1 {
			groups = append(groups, Group{ID: h, Key: Key{Hash: h}, Files: members})
		}
	}
	return groups
}

// GroupByName groups files sharing an exact filename, regardless of size.
func GroupByName(files []*catalog.FileRecord) []Group {
	order, buckets := groupBy(files, func(f *catalog.FileRecord) (string, bool) {
		return f.Filename, true
	})

	var groups []Group
	for _, name := range order {
		if members := buckets[name]; len(members) > 1 {
			groups = append(groups, Group{
				ID:    "name_" + name,
				Key:   Key{Filename: members[0].Filename},
				Files: members,
			})
		}
	}
	return groups
}

// FilterByRoots keeps files whose path or directory lies under one of roots.
// An empty roots list keeps nothing.
func FilterByRoots(files []*catalog.FileRecord, roots []string) []*catalog.FileRecord {
	if len(roots) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(roots))
	for _, r := range roots {
		r = strings.TrimRight(r, "/")
		if r == "" {
			r = "/"
		}
		normalized = append(normalized, r)
	}

	var kept []*catalog.FileRecord
	for _, f := range files {
		for _, root := range normalized {
			if under(f.Path, root) || under(f.Directory, root) {
				kept = append(kept, f)
				break
			}
		}
	}
	return kept
}

// under reports whether p is root or lies below it.
func under(p, root string) bool {
	if root == "/" {
		return strings.HasPrefix(p, "/")
	}
	return p == root || strings.HasPrefix(p, root+"/")
}
