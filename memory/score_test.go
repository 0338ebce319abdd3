package memory_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/memory"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestSemanticScoreBounds(t *testing.T) {
	for _, d := range []float64{-1, 0, 0.5, 1, 2, 3, math.NaN()} {
		s := memory.SemanticScore(d)
		gt.True(t, s >= 0 && s <= 1).Describe(fmt.Sprintf("distance %v", d))
	}
	gt.Equal(t, memory.SemanticScore(0), 1.0)
	gt.Equal(t, memory.SemanticScore(1), 0.5)
	gt.Equal(t, memory.SemanticScore(2), 0.0)
}

func TestTimeScoreDecay(t *testing.T) {
	now := base
	at := func(age time.Duration) memory.Metadata {
		return memory.Metadata{memory.KeyTimestamp: now.Add(-age).Format(time.RFC3339Nano)}
	}

	gt.True(t, near(memory.TimeScore(at(0), now, memory.DefaultHalfLife), 1.0))
	gt.True(t, near(memory.TimeScore(at(48*time.Hour), now, memory.DefaultHalfLife), 0.5))
	gt.True(t, near(memory.TimeScore(at(96*time.Hour), now, memory.DefaultHalfLife), 0.25))

	prev := 2.0
	for _, age := range []time.Duration{0, time.Minute, time.Hour, 24 * time.Hour, 30 * 24 * time.Hour} {
		s := memory.TimeScore(at(age), now, memory.DefaultHalfLife)
		gt.True(t, s < prev && s > 0)
		prev = s
	}
}

func TestTimeScoreFutureAndMalformed(t *testing.T) {
	future := memory.Metadata{memory.KeyTimestamp: base.Add(time.Hour).Format(time.RFC3339Nano)}
	gt.Equal(t, memory.TimeScore(future, base, memory.DefaultHalfLife), 1.0)

	gt.Equal(t, memory.TimeScore(memory.Metadata{}, base, memory.DefaultHalfLife), 0.5)
	gt.Equal(t, memory.TimeScore(memory.Metadata{memory.KeyTimestamp: "yesterday"}, base, memory.DefaultHalfLife), 0.5)
}

func TestTimeScoreNaiveTimestamp(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.Local)
	meta := memory.Metadata{memory.KeyTimestamp: "2025-03-12T12:00:00.123456"}
	gt.True(t, near(memory.TimeScore(meta, now, memory.DefaultHalfLife), 0.5))
}

func TestCombinedScoreIntensityBoost(t *testing.T) {
	plain := memory.CombinedScore(0.8, 0.6, 0.3, 0.5, 0.7, 0.5)
	gt.True(t, near(plain, 0.74))

	atThreshold := memory.CombinedScore(0.8, 0.6, 0.3, 0.7, 0.7, 0.5)
	gt.Equal(t, atThreshold, plain)

	maxed := memory.CombinedScore(0.8, 0.6, 0.3, 1.0, 0.7, 0.5)
	gt.True(t, near(maxed, plain*1.15))

	strong := memory.CombinedScore(0.8, 0.6, 0.3, 0.9, 0.7, 0.5)
	gt.True(t, near(strong, plain*1.1))
}

func TestCombinedScoreWeights(t *testing.T) {
	gt.Equal(t, memory.CombinedScore(0.9, 0.1, 0, 0.5, 0.7, 0.5), 0.9)
	gt.Equal(t, memory.CombinedScore(0.9, 0.1, 1, 0.5, 0.7, 0.5), 0.1)
}
