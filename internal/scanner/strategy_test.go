package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHashStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    HashStrategy
		wantErr bool
	}{
		{in: "", want: HashSmart},
		{in: "always", want: HashAlways},
		{in: " Selective ", want: HashSelective},
		{in: "never", want: HashNever},
		{in: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseHashStrategy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseHashStrategy(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseHashStrategy(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseHashStrategy(%q)", tt.in)
	}
}

func TestHashStrategy_ShouldHash(t *testing.T) {
	tests := []struct {
		name     string
		strategy HashStrategy
		ext      string
		size     int64
		max      int64
		want     bool
	}{
		{name: "never hashes nothing", strategy: HashNever, ext: ".jpg", size: 10, want: false},
		{name: "never skips empty files too", strategy: HashNever, ext: ".jpg", size: 0, want: false},
		{name: "always hashes large files", strategy: HashAlways, ext: ".bin", size: 900 * mib, want: true},
		{name: "global ceiling wins", strategy: HashAlways, ext: ".bin", size: 2 * mib, max: mib, want: false},
		{name: "empty file always eligible", strategy: HashSelective, ext: ".bin", size: 0, max: mib, want: true},

		{name: "smart small file", strategy: HashSmart, ext: ".bin", size: mib - 1, want: true},
		{name: "smart media under ceiling", strategy: HashSmart, ext: ".mp4", size: 50 * mib, want: true},
		{name: "smart media over ceiling", strategy: HashSmart, ext: ".mp4", size: 50*mib + 1, want: false},
		{name: "smart image", strategy: HashSmart, ext: ".png", size: 20 * mib, want: true},
		{name: "smart document under ceiling", strategy: HashSmart, ext: ".pdf", size: 10 * mib, want: true},
		{name: "smart document over ceiling", strategy: HashSmart, ext: ".pdf", size: 11 * mib, want: false},
		{name: "smart archive", strategy: HashSmart, ext: ".zip", size: 100 * mib, want: true},
		{name: "smart archive over ceiling", strategy: HashSmart, ext: ".zip", size: 101 * mib, want: false},
		{name: "smart other under 5MiB", strategy: HashSmart, ext: ".xyz", size: 5 * mib, want: true},
		{name: "smart other over 5MiB", strategy: HashSmart, ext: ".xyz", size: 6 * mib, want: false},

		{name: "selective tiny file of any type", strategy: HashSelective, ext: ".xyz", size: 100 * kib, want: true},
		{name: "selective other type above 100KiB", strategy: HashSelective, ext: ".xyz", size: 101 * kib, want: false},
		{name: "selective listed type", strategy: HashSelective, ext: ".jpeg", size: 10 * mib, want: true},
		{name: "selective listed type over 10MiB", strategy: HashSelective, ext: ".mp3", size: 10*mib + 1, want: false},
		{name: "selective unlisted media", strategy: HashSelective, ext: ".mkv", size: mib, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.ShouldHash(tt.ext, tt.size, tt.max),
				"ShouldHash(%q, %d, %d)", tt.ext, tt.size, tt.max)
		})
	}
}
