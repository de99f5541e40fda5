package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isearch/internal/catalog"
	"isearch/internal/testutil"
)

var modTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func paths(files []*catalog.FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *testutil.RecordingLogger, catalog.Store) {
	t.Helper()
	store := testutil.NewTestStore(t, nil)
	testutil.MustUpsert(t, store,
		testutil.Record("/home/docs/report_2023.pdf", 1000, modTime),
		testutil.Record("/home/docs/Report_final.txt", 2000, modTime),
		testutil.Record("/home/pics/vacation.jpg", 5000, modTime),
		testutil.Record("/home/pics/vacation_beach.jpg", 5200, modTime),
		testutil.Record("/other/notes.txt", 300, modTime),
	)
	logger := testutil.NewRecordingLogger()
	return NewEngine(store, logger), logger, store
}

func TestEngine_Search(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{
			name:    "substring is case-insensitive by default",
			filters: Filters{Query: "report"},
			want:    []string{"/home/docs/report_2023.pdf", "/home/docs/Report_final.txt"},
		},
		{
			name:    "case-sensitive substring",
			filters: Filters{Query: "Report", CaseSensitive: true},
			want:    []string{"/home/docs/Report_final.txt"},
		},
		{
			name:    "multiple file types",
			filters: Filters{FileTypes: []catalog.FileType{catalog.FileTypeImage, catalog.FileTypeDocument}, Query: "a"},
			want: []string{
				"/home/pics/vacation.jpg", "/home/pics/vacation_beach.jpg",
				"/home/docs/Report_final.txt",
			},
		},
		{
			name:    "repeated file type is deduplicated",
			filters: Filters{FileTypes: []catalog.FileType{catalog.FileTypeImage, catalog.FileTypeImage}},
			want:    []string{"/home/pics/vacation.jpg", "/home/pics/vacation_beach.jpg"},
		},
		{
			name:    "regex ignores case by default",
			filters: Filters{Query: `^VACATION.*\.jpg$`, UseRegex: true},
			want:    []string{"/home/pics/vacation.jpg", "/home/pics/vacation_beach.jpg"},
		},
		{
			name:    "case-sensitive regex",
			filters: Filters{Query: `^VACATION`, UseRegex: true, CaseSensitive: true},
			want:    []string{},
		},
		{
			name:    "regex over full path",
			filters: Filters{Query: `^/home/docs/`, UseRegex: true, SearchPath: true},
			want:    []string{"/home/docs/report_2023.pdf", "/home/docs/Report_final.txt"},
		},
		{
			name:    "directory prefixes",
			filters: Filters{Directories: []string{"/home/pics", "/other"}},
			want:    []string{"/home/pics/vacation.jpg", "/home/pics/vacation_beach.jpg", "/other/notes.txt"},
		},
		{
			name:    "size bounds",
			filters: Filters{MinSize: ptr(int64(1000)), MaxSize: ptr(int64(2000))},
			want:    []string{"/home/docs/report_2023.pdf", "/home/docs/Report_final.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Search(tt.filters)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, paths(got))
		})
	}
}

func TestEngine_Search_Limit(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	got, err := engine.Search(Filters{Query: `\.jpg$`, UseRegex: true, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = engine.Search(Filters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEngine_Search_InvalidRegex(t *testing.T) {
	engine, logger, _ := newTestEngine(t)

	got, err := engine.Search(Filters{Query: "[unclosed", UseRegex: true})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, logger.Contains("invalid regex pattern"), "lines: %v", logger.Lines())
}

func TestEngine_SearchSimilar(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	hits, err := engine.SearchSimilar("/home/pics/vacation.jpg", 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/home/pics/vacation_beach.jpg", hits[0].File.Path)
	assert.InDelta(t, 0.80, hits[0].Score, 0.01)

	hits, err = engine.SearchSimilar("/home/pics/vacation.jpg", 0.9)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = engine.SearchSimilar("/nowhere.jpg", 0)
	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestEngine_SearchSimilar_SortedByScore(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	testutil.MustUpsert(t, store,
		testutil.Record("/a/song.mp3", 1000, modTime),
		testutil.Record("/b/song2.mp3", 1000, modTime),
		testutil.Record("/c/song remix.mp3", 400, modTime),
	)
	engine := NewEngine(store, nil)

	hits, err := engine.SearchSimilar("/a/song.mp3", 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "/b/song2.mp3", hits[0].File.Path)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestEngine_Suggestions(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	got, err := engine.Suggestions("va", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"vacation", "vacation.jpg", "vacation_beach.jpg"}, got)

	got, err = engine.Suggestions("va", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"vacation", "vacation.jpg"}, got)

	got, err = engine.Suggestions("v", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Words must be longer than the query itself.
	got, err = engine.Suggestions("notes", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, got)
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "punctuation", in: "trip_2023-beach.jpg", want: []string{"trip", "2023", "beach", "jpg"}},
		{name: "tabs and newlines", in: "a\tb\nc", want: []string{"a", "b", "c"}},
		{name: "unicode space", in: "summer\u00a0trip\u2003notes", want: []string{"summer", "trip", "notes"}},
		{name: "separators only", in: "._- ", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitWords(tt.in)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestEngine_SearchDuplicates(t *testing.T) {
	store := testutil.NewTestStore(t, nil)
	h1 := testutil.Record("/x/one.bin", 2048, modTime)
	h1.Hash = "abc"
	h2 := testutil.Record("/y/two.bin", 2048, modTime)
	h2.Hash = "abc"
	testutil.MustUpsert(t, store,
		h1, h2,
		testutil.Record("/x/a.txt", 2048, modTime),
		testutil.Record("/y/a.txt", 2048, modTime),
		testutil.Record("/z/a.txt", 4096, modTime),
		testutil.Record("/w/A.txt", 4096, modTime),
		testutil.Record("/x/tiny.txt", 10, modTime),
		testutil.Record("/y/tiny.txt", 10, modTime),
	)
	engine := NewEngine(store, nil)

	t.Run("size_name", func(t *testing.T) {
		groups, err := engine.SearchDuplicates(DuplicatesBySizeName, 1024)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.ElementsMatch(t, []string{"/x/a.txt", "/y/a.txt"}, paths(groups[0].Files))
	})

	t.Run("size_name without minimum", func(t *testing.T) {
		groups, err := engine.SearchDuplicates(DuplicatesBySizeName, 0)
		require.NoError(t, err)
		assert.Len(t, groups, 2)
	})

	t.Run("hash uses stored digests", func(t *testing.T) {
		groups, err := engine.SearchDuplicates(DuplicatesByHash, 1024)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "abc", groups[0].ID)
	})

	t.Run("name_only ignores size and keeps case", func(t *testing.T) {
		groups, err := engine.SearchDuplicates(DuplicatesByName, 1024)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.ElementsMatch(t, []string{"/x/a.txt", "/y/a.txt", "/z/a.txt"}, paths(groups[0].Files))
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := engine.SearchDuplicates("fuzzy", 0)
		assert.ErrorIs(t, err, ErrUnknownMethod)
	})
}

func ptr[T any](v T) *T { return &v }
