package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecencyScore_JustAccessed(t *testing.T) {
	require.InDelta(t, 1.0, recencyScore(0), 0.0001)
}

func TestRecencyScore_DecaysTowardFloor(t *testing.T) {
	require.Greater(t, recencyScore(1), recencyScore(30))
	require.Greater(t, recencyScore(30), recencyScore(365))
	// Asymptotic floor of 0.5, never below.
	require.Greater(t, recencyScore(10000), 0.5)
}

func TestFrequencyScore_NeverAccessedGetsBootstrap(t *testing.T) {
	require.Equal(t, 0.3, frequencyScore(0))
}

func TestFrequencyScore_GrowsLogarithmicallyAndCaps(t *testing.T) {
	require.Greater(t, frequencyScore(1), 0.3)
	require.Greater(t, frequencyScore(9), frequencyScore(1))
	// log10(10) = 1.0 exactly; anything above stays capped.
	require.Equal(t, 1.0, frequencyScore(9+1000))
}

func TestQualityScore_BaseOnly(t *testing.T) {
	require.Equal(t, 0.5, qualityScore("short note"))
}

func TestQualityScore_IdealLengthBonus(t *testing.T) {
	text := strings.Repeat("a", 400)
	require.Equal(t, 0.7, qualityScore(text))
}

func TestQualityScore_ModerateLengthBonus(t *testing.T) {
	text := strings.Repeat("a", 200)
	require.InDelta(t, 0.6, qualityScore(text), 0.0001)
}

func TestQualityScore_StructureBonuses(t *testing.T) {
	text := "# heading\n```go\ncode\n```"
	// base 0.5 + heading 0.1 + code block 0.1
	require.InDelta(t, 0.7, qualityScore(text), 0.0001)
}

func TestQualityScore_CountsCharactersNotBytes(t *testing.T) {
	// 100 CJK characters are 300 bytes; only character count matters.
	short := strings.Repeat("记", 100)
	require.Equal(t, 0.5, qualityScore(short))

	// 600 characters (1800 bytes) sit inside the ideal band.
	ideal := strings.Repeat("记", 600)
	require.InDelta(t, 0.7, qualityScore(ideal), 0.0001)
}

func TestQualityScore_AllBonuses(t *testing.T) {
	text := "# heading\n```\n" + strings.Repeat("a", 400) + "\n```"
	require.InDelta(t, 0.9, qualityScore(text), 0.0001)
}

func TestMixedWeight_Weighting(t *testing.T) {
	// All ones fuse to one.
	require.InDelta(t, 1.0, mixedWeight(1, 1, 1, 1), 0.0001)
	// The base weight carries 40%.
	require.InDelta(t, 0.4, mixedWeight(1, 0, 0, 0), 0.0001)
	require.InDelta(t, 0.2, mixedWeight(0, 1, 0, 0), 0.0001)
}

func TestFinalScore_EvenSplit(t *testing.T) {
	require.InDelta(t, 0.5, finalScore(1, 0), 0.0001)
	require.InDelta(t, 0.5, finalScore(0, 1), 0.0001)
	require.InDelta(t, 1.0, finalScore(1, 1), 0.0001)
}

func TestRounding(t *testing.T) {
	require.Equal(t, 0.1235, round4(0.12345))
	require.Equal(t, 0.123, round3(0.12345))
}
