package duplicate

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"isearch/internal/catalog"
)

// Score weights, summing to 100.
const (
	weightSize      = 30
	weightName      = 25
	weightLocation  = 20
	weightRecency   = 15
	weightExtension = 10
)

var genericNameTokens = []string{
	"img_", "dsc_", "image", "photo", "pic", "screenshot", "untitled", "new", "copy", "temp",
}

var organizedLocations = []string{
	"documents", "pictures", "photos", "images", "videos", "music", "projects",
}

// "downloads" counts only as a throwaway location.
var throwawayLocations = []string{
	"temp", "tmp", "cache", "trash", "recycle", "desktop", "downloads",
}

var extensionPreference = map[string]float64{
	".jpg": 0.9, ".jpeg": 0.9, ".png": 0.8, ".gif": 0.7,
	".mp4": 0.9, ".avi": 0.7, ".mkv": 0.8,
	".pdf": 0.9, ".docx": 0.8, ".txt": 0.7,
	".mp3": 0.9, ".flac": 0.8, ".wav": 0.7,
}

// Recommendation is the outcome of AnalyzeGroup.
type Recommendation string

const (
	RecommendKeepBest Recommendation = "keep_best"
	RecommendNoAction Recommendation = "no_action"
)

// ScoredFile pairs a file with its quality score.
type ScoredFile struct {
	File  *catalog.FileRecord
	Score float64
}

// Analysis is a keep/remove recommendation for one duplicate group.
type Analysis struct {
	Recommendation Recommendation
	Keep           *catalog.FileRecord
	Remove         []*catalog.FileRecord
	Scores         []ScoredFile // highest first
	Savings        int64        // bytes freed by removing Remove
	Reason         string
}

// AnalyzeGroup scores every file in a group and recommends keeping the best.
// Ties keep the earlier file.
func AnalyzeGroup(files []*catalog.FileRecord) Analysis {
	if len(files) < 2 {
		return Analysis{Recommendation: RecommendNoAction, Reason: "not a duplicate group"}
	}

	scores := make([]ScoredFile, len(files))
	for i, f := range files {
		scores[i] = ScoredFile{File: f, Score: QualityScore(f, files)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	a := Analysis{
		Recommendation: RecommendKeepBest,
		Keep:           scores[0].File,
		Scores:         scores,
		Reason:         fmt.Sprintf("best file has score %.2f", scores[0].Score),
	}
	for _, s := range scores[1:] {
		a.Remove = append(a.Remove, s.File)
		a.Savings += s.File.Size
	}
	return a
}

// QualityScore rates f against the rest of its group on a 0-100 scale.
func QualityScore(f *catalog.FileRecord, group []*catalog.FileRecord) float64 {
	var maxSize int64
	var newest float64
	for _, g := range group {
		maxSize = max(maxSize, g.Size)
		newest = max(newest, unixSeconds(g))
	}

	score := 0.0
	if maxSize > 0 {
		score += float64(f.Size) / float64(maxSize) * weightSize
	}
	score += NameScore(f.Filename) * weightName
	score += LocationScore(f.Path) * weightLocation
	if newest > 0 {
		score += unixSeconds(f) / newest * weightRecency
	}
	score += ExtensionScore(f.Extension) * weightExtension
	return score
}

func unixSeconds(f *catalog.FileRecord) float64 {
	return float64(f.ModifiedDate.UnixNano()) / 1e9
}

// NameScore rates how descriptive a filename is, in [0, 1].
func NameScore(filename string) float64 {
	name := strings.ToLower(filename)

	penalty := 0.0
	for _, token := range genericNameTokens {
		if strings.Contains(name, token) {
			penalty += 0.2
		}
	}

	reward := 0.0
	if len([]rune(name)) > 10 {
		reward += 0.3
	}
	if strings.IndexFunc(name, unicode.IsDigit) >= 0 {
		reward += 0.2
	}
	if strings.ContainsAny(name, "_-") {
		reward += 0.1
	}

	return clamp01(0.5 + reward - penalty)
}

// LocationScore rates how organized a path looks, in [0, 1].
func LocationScore(path string) float64 {
	p := strings.ToLower(path)
	score := 0.5
	for _, good := range organizedLocations {
		if strings.Contains(p, good) {
			score += 0.2
			break
		}
	}
	for _, bad := range throwawayLocations {
		if strings.Contains(p, bad) {
			score -= 0.3
			break
		}
	}
	return clamp01(score)
}

// ExtensionScore is the format preference for ext, 0.5 when unknown.
func ExtensionScore(ext string) float64 {
	if s, ok := extensionPreference[strings.ToLower(ext)]; ok {
		return s
	}
	return 0.5
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
