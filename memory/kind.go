package memory

import (
	"github.com/m-mizutani/goerr/v2"
)

// Kind names a memory collection.
type Kind string

const (
	KindConversations Kind = "conversations"
	KindKnowledge     Kind = "knowledge"
	KindEmotions      Kind = "emotion_events"
	KindGoals         Kind = "goals_and_plans"
	KindObservations  Kind = "user_observations"

	// KindAll selects every collection in a recall.
	KindAll Kind = "all"
)

var kinds = []Kind{
	KindConversations,
	KindKnowledge,
	KindEmotions,
	KindGoals,
	KindObservations,
}

// Kinds returns every collection kind in canonical order. Ties in a merged
// recall keep this order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k names a collection. KindAll is not a collection.
func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Prefix returns the id prefix used for records of this kind.
func (k Kind) Prefix() string {
	switch k {
	case KindConversations:
		return "conv"
	case KindKnowledge:
		return "know"
	case KindEmotions:
		return "emo"
	case KindGoals:
		return "goal"
	case KindObservations:
		return "obs"
	}
	return "mem"
}

func (k Kind) String() string { return string(k) }

// ParseKind resolves a collection name or "all". The empty string means all.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if s == "" || k == KindAll {
		return KindAll, nil
	}
	if !k.Valid() {
		return "", goerr.Wrap(ErrUnknownKind, "parse kind", goerr.V("kind", s))
	}
	return k, nil
}
