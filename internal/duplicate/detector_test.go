package duplicate

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isearch/internal/catalog"
	"isearch/internal/testutil"
)

var modTime = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func paths(files []*catalog.FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"size_name", "hash", "exact_content", "smart"} {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, Method(name), m)
	}

	_, err := ParseMethod("fuzzy")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestDetector_Find_UnknownMethod(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	d := NewDetector(store, nil)

	groups, err := d.Find(Options{Method: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.Nil(t, groups)
}

func TestDetector_Find_SizeName(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	testutil.MustUpsert(t, store,
		testutil.Record("/x/a.txt", 100, modTime),
		testutil.Record("/x/b.txt", 100, modTime),
		testutil.Record("/y/a.txt", 100, modTime),
	)
	d := NewDetector(store, nil)

	groups, err := d.Find(Options{Method: MethodSizeName})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, Key{Size: 100, Filename: "a.txt"}, g.Key)
	assert.Equal(t, "100_a.txt", g.ID)
	assert.ElementsMatch(t, []string{"/x/a.txt", "/y/a.txt"}, paths(g.Files))
	assert.Equal(t, int64(200), g.TotalSize())
}

func TestDetector_Find_MinFileSize(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	testutil.MustUpsert(t, store,
		testutil.Record("/x/small.txt", 10, modTime),
		testutil.Record("/y/small.txt", 10, modTime),
	)
	d := NewDetector(store, nil)

	groups, err := d.Find(Options{Method: MethodSizeName, MinFileSize: 1024})
	require.NoError(t, err)
	assert.Empty(t, groups)

	groups, err = d.Find(Options{Method: MethodSizeName, MinFileSize: 10})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestDetector_Find_DirectoryRestriction(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	testutil.MustUpsert(t, store,
		testutil.Record("/photos/a.jpg", 500, modTime),
		testutil.Record("/photos/2023/a.jpg", 500, modTime),
		testutil.Record("/photos-old/a.jpg", 500, modTime),
	)
	d := NewDetector(store, nil)

	t.Run("empty allow-list matches nothing", func(t *testing.T) {
		groups, err := d.Find(Options{Method: MethodSizeName, RestrictRoots: true})
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("no restriction uses the whole catalog", func(t *testing.T) {
		groups, err := d.Find(Options{Method: MethodSizeName})
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Files, 3)
	})

	t.Run("roots restrict by path prefix", func(t *testing.T) {
		groups, err := d.Find(Options{Method: MethodSizeName, RestrictRoots: true, Roots: []string{"/photos/"}})
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.ElementsMatch(t, []string{"/photos/a.jpg", "/photos/2023/a.jpg"}, paths(groups[0].Files))
	})
}

func TestDetector_Find_Hash(t *testing.T) {
	dir := t.TempDir()
	content := []byte("identical bytes")
	a1 := filepath.Join(dir, "one", "a.bin")
	a2 := filepath.Join(dir, "two", "renamed.bin")
	other := filepath.Join(dir, "other.bin")
	testutil.WriteFile(t, a1, content, modTime)
	testutil.WriteFile(t, a2, content, modTime)
	testutil.WriteFile(t, other, []byte("different"), modTime)

	store := testutil.NewTestStore(t, nil)
	s1 := testutil.Record("/gone/s1.bin", 5, modTime)
	s1.Hash = "sentinel"
	s2 := testutil.Record("/gone/s2.bin", 5, modTime)
	s2.Hash = "sentinel"
	testutil.MustUpsert(t, store,
		testutil.Record(a1, int64(len(content)), modTime),
		testutil.Record(a2, int64(len(content)), modTime),
		testutil.Record(other, 9, modTime),
		s1, s2,
	)

	d := NewDetector(store, nil)
	groups, err := d.Find(Options{Method: MethodHash})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byID := map[string]Group{}
	for _, g := range groups {
		byID[g.ID] = g
	}

	// Stored digests are reused, not recomputed: these files do not exist.
	require.Contains(t, byID, "sentinel")
	assert.ElementsMatch(t, []string{"/gone/s1.bin", "/gone/s2.bin"}, paths(byID["sentinel"].Files))

	digest := testutil.SHA256Hex(content)
	require.Contains(t, byID, digest)
	assert.ElementsMatch(t, []string{a1, a2}, paths(byID[digest].Files))

	// Computed digests are persisted for the next run.
	rec, err := store.GetFile(a1)
	require.NoError(t, err)
	assert.Equal(t, digest, rec.Hash)
	rec, err = store.GetFile(other)
	require.NoError(t, err)
	assert.Equal(t, testutil.SHA256Hex([]byte("different")), rec.Hash)
}

func TestDetector_Find_ExactContent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("same")
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	testutil.WriteFile(t, a, content, modTime)
	testutil.WriteFile(t, b, content, modTime)

	store := testutil.NewTestStore(t, nil)
	ra := testutil.Record(a, 4, modTime)
	ra.Hash = "stale-a"
	rb := testutil.Record(b, 4, modTime)
	rb.Hash = "stale-b"
	testutil.MustUpsert(t, store, ra, rb)

	d := NewDetector(store, nil)
	groups, err := d.Find(Options{Method: MethodExactContent})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	digest := testutil.SHA256Hex(content)
	assert.Equal(t, "content_"+digest[:8], groups[0].ID)
	assert.Equal(t, digest, groups[0].Key.Hash)

	// exact_content never writes digests back.
	rec, _ := store.GetFile(a)
	assert.Equal(t, "stale-a", rec.Hash)
}

func TestDetector_Find_Smart(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	testutil.MustUpsert(t, store,
		testutil.Record("/c/vacation copy.jpg", 100500, modTime),
		testutil.Record("/a/vacation.jpg", 100000, modTime),
		testutil.Record("/b/vacation (1).jpg", 101000, modTime),
		testutil.Record("/d/vacation.jpg", 3000, modTime),
		testutil.Record("/e/report.pdf", 100000, modTime),
	)
	d := NewDetector(store, nil)

	groups, err := d.Find(Options{Method: MethodSmart, SizeTolerance: 0.05})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "smart_group_1", g.ID)
	assert.Equal(t, "vacation", g.Key.BaseName)
	assert.Equal(t, catalog.FileTypeImage, g.Key.FileType)
	// Clustering visits candidates in path order.
	assert.Equal(t, []string{"/a/vacation.jpg", "/b/vacation (1).jpg", "/c/vacation copy.jpg"}, paths(g.Files))
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"Vacation.JPG":         "vacation",
		"vacation (1).jpg":     "vacation",
		"vacation (12).jpg":    "vacation",
		"Report - Copy.docx":   "report",
		"notes_copy.txt":       "notes",
		"notes copy.txt":       "notes",
		"database.db.bak":      "database",
		"settings.conf.backup": "settings",
		"archive.tar.gz":       "archive.tar",
		".bashrc":              ".bashrc",
		"no extension":         "no extension",
		"photo(1).jpg":         "photo(1)",
	}
	for in, want := range tests {
		assert.Equal(t, want, BaseName(in), "BaseName(%q)", in)
	}
}

func TestSizeBucket(t *testing.T) {
	assert.Equal(t, int64(0), SizeBucket(0, 0.05))
	assert.Equal(t, int64(1), SizeBucket(1024, 0.05))
	assert.Equal(t, int64(20), SizeBucket(100000, 0.05))
	assert.Equal(t, int64(20), SizeBucket(101000, 0.05))
	assert.Equal(t, int64(4), SizeBucket(5000, 0), "zero tolerance falls back to 1 KiB buckets")
}

func TestGroupByName(t *testing.T) {
	files := []*catalog.FileRecord{
		testutil.Record("/a/Song.mp3", 10, modTime),
		testutil.Record("/b/song.mp3", 20, modTime),
		testutil.Record("/c/song.mp3", 30, modTime),
		testutil.Record("/d/other.mp3", 10, modTime),
	}
	groups := GroupByName(files)
	require.Len(t, groups, 1, "filenames differing only in case are distinct")
	assert.Equal(t, "name_song.mp3", groups[0].ID)
	assert.Equal(t, []string{"/b/song.mp3", "/c/song.mp3"}, paths(groups[0].Files))
}

func TestGroupOrder_FirstSeen(t *testing.T) {
	files := []*catalog.FileRecord{
		testutil.Record("/1/z.txt", 1, modTime),
		testutil.Record("/1/a.txt", 1, modTime),
		testutil.Record("/2/z.txt", 1, modTime),
		testutil.Record("/2/a.txt", 1, modTime),
	}
	groups := GroupBySizeName(files)
	require.Len(t, groups, 2)
	assert.Equal(t, "z.txt", groups[0].Key.Filename)
	assert.Equal(t, "a.txt", groups[1].Key.Filename)
}
