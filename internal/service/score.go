package service

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Ranking constants. Similarity below the raw floor never reaches scoring;
// fused scores below the score floor are dropped after scoring.
const (
	// minSimilarity is the pre-fusion floor on raw vector similarity.
	minSimilarity = 0.15
	// minScore is the post-fusion floor on the composite score.
	minScore = 0.20
	// maxPerSource caps how many results a single source may contribute.
	maxPerSource = 3
	// overFetchFactor over-fetches vector matches to compensate for
	// post-filtering and diversity losses.
	overFetchFactor = 3
	// recencyHalfLifeDays tunes the exponential recency decay.
	recencyHalfLifeDays = 30.0
	// bootstrapFrequency is the frequency score for never-accessed items,
	// so new content is not zeroed out of the ranking.
	bootstrapFrequency = 0.3
	// defaultSearchLimit is used when the caller supplies no limit.
	defaultSearchLimit = 5
	// maxSearchLimit caps the requested result count.
	maxSearchLimit = 20
)

// scoreBreakdown is the per-factor debug view of a composite score,
// rounded to 3 decimal places for output.
type scoreBreakdown struct {
	Base              float64 `json:"base"`
	Recency           float64 `json:"recency"`
	Frequency         float64 `json:"frequency"`
	Quality           float64 `json:"quality"`
	MixedWeight       float64 `json:"mixedWeight"`
	AccessCount       int64   `json:"accessCount"`
	DaysSinceAccessed int64   `json:"daysSinceAccessed"`
}

// recencyScore decays exponentially with days since last access, anchored to
// the [0.5, 1.0] range: a just-accessed item approaches 1.0, a stale one
// asymptotically approaches 0.5 and never reaches zero.
func recencyScore(daysSinceAccessed float64) float64 {
	return math.Exp(-daysSinceAccessed/recencyHalfLifeDays)*0.5 + 0.5
}

// frequencyScore grows logarithmically with the access count, capped at 1.0.
// Never-accessed items get the fixed bootstrap value instead of zero.
func frequencyScore(accessCount int64) float64 {
	if accessCount == 0 {
		return bootstrapFrequency
	}
	return math.Min(math.Log10(float64(accessCount)+1), 1.0)
}

// qualityScore is a bounded heuristic over the raw text: moderate length,
// headings, and code blocks each add a bonus on top of the 0.5 base. Length
// is measured in characters, not bytes, so multi-byte scripts are not
// over-counted.
func qualityScore(text string) float64 {
	score := 0.5
	switch n := utf8.RuneCountInString(text); {
	case n >= 300 && n <= 1500:
		score += 0.2
	case n >= 150:
		score += 0.1
	}
	if strings.Contains(text, "#") {
		score += 0.1
	}
	if strings.Contains(text, "```") {
		score += 0.1
	}
	return score
}

// mixedWeight fuses the non-similarity relevance signals: the caller-supplied
// base weight dominates at 40%, recency, frequency and quality split the rest.
func mixedWeight(weight, recency, frequency, quality float64) float64 {
	return 0.4*weight + 0.2*recency + 0.2*frequency + 0.2*quality
}

// finalScore splits the composite evenly between vector similarity and the
// mixed relevance weight.
func finalScore(similarity, mixed float64) float64 {
	return 0.5*similarity + 0.5*mixed
}

// round4 rounds to 4 decimal places, the precision of every externally
// visible score field.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// round3 rounds to 3 decimal places, the precision of debug breakdown fields.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
