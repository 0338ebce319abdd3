package memory

import (
	"math"
	"time"
)

const ln2 = 0.693

// neutralTimeScore is used for records without a readable timestamp.
const neutralTimeScore = 0.5

// SemanticScore maps a cosine distance in [0, 2] to a similarity in [0, 1].
func SemanticScore(distance float64) float64 {
	return clamp01(1 - distance/2)
}

// TimeScore decays exponentially with age, halving every halfLife.
// A future timestamp counts as age zero.
func TimeScore(meta Metadata, now time.Time, halfLife time.Duration) float64 {
	ts, ok := meta.Timestamp()
	if !ok {
		return neutralTimeScore
	}
	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}
	return math.Exp(-ln2 * age.Hours() / halfLife.Hours())
}

// CombinedScore blends semantic and time scores and applies the intensity
// boost for emotionally strong records.
func CombinedScore(semantic, timeScore, timeWeight, intensity, threshold, factor float64) float64 {
	combined := (1-timeWeight)*semantic + timeWeight*timeScore
	if intensity > threshold {
		combined *= 1 + (intensity-threshold)*factor
	}
	return combined
}

func (s *Store) score(kind Kind, m Match, timeWeight float64, now time.Time) RecallResult {
	semantic := SemanticScore(m.Distance)
	timeScore := TimeScore(m.Metadata, now, s.cfg.HalfLife)
	return RecallResult{
		ID:            m.ID,
		Text:          m.Text,
		Collection:    kind,
		Metadata:      m.Metadata.Clone(),
		Distance:      m.Distance,
		SemanticScore: semantic,
		TimeScore:     timeScore,
		CombinedScore: CombinedScore(
			semantic, timeScore, timeWeight,
			m.Metadata.Intensity(), s.cfg.IntensityThreshold, s.cfg.IntensityFactor,
		),
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
