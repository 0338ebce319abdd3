package memory_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/memory"
)

func TestMetadataAccessorsDefaults(t *testing.T) {
	m := memory.Metadata{
		"intensity":  "high",
		"confidence": "0.95",
		"priority":   "3",
		"score":      "NaN",
	}

	gt.Equal(t, m.Intensity(), memory.DefaultIntensity)
	gt.Equal(t, m.Confidence(0.8), 0.95)
	gt.Equal(t, m.Priority(), 3)
	gt.Equal(t, m.Float("score", 0.1), 0.1)
	gt.Equal(t, m.Int("missing", 7), 7)

	var empty memory.Metadata
	gt.Equal(t, empty.Intensity(), 0.5)
	gt.Equal(t, empty.Priority(), memory.DefaultGoalPriority)
	gt.Equal(t, empty.Date(), "unknown")
	_, ok := empty.Timestamp()
	gt.False(t, ok)
}

func TestMetadataClone(t *testing.T) {
	m := memory.Metadata{"a": "1"}
	c := m.Clone()
	c["a"] = "2"
	gt.Equal(t, m["a"], "1")
}

func TestParseKind(t *testing.T) {
	k, err := memory.ParseKind("")
	gt.NoError(t, err)
	gt.Equal(t, k, memory.KindAll)

	k, err = memory.ParseKind("goals_and_plans")
	gt.NoError(t, err)
	gt.Equal(t, k, memory.KindGoals)
	gt.Equal(t, k.Prefix(), "goal")

	_, err = memory.ParseKind("diary")
	gt.True(t, errors.Is(err, memory.ErrUnknownKind))

	gt.False(t, memory.KindAll.Valid())
	gt.A(t, memory.Kinds()).Length(5)
}

func TestConfigCollectionName(t *testing.T) {
	cfg := memory.DefaultConfig()
	gt.Equal(t, cfg.CollectionName(memory.KindKnowledge), "knowledge")

	cfg.Collections = map[memory.Kind]string{memory.KindKnowledge: "facts_v2"}
	gt.Equal(t, cfg.CollectionName(memory.KindKnowledge), "facts_v2")
	gt.Equal(t, cfg.CollectionName(memory.KindGoals), "goals_and_plans")
}
