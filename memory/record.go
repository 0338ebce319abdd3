package memory

import (
	"strconv"
	"strings"
)

// Defaults for fields a record leaves empty.
const (
	DefaultEmotion               = "neutral"
	DefaultKnowledgeSource       = "observation"
	DefaultKnowledgeConfidence   = 0.8
	DefaultKnowledgeCategory     = "general"
	DefaultGoalStatus            = "active"
	DefaultGoalPriority          = 5
	DefaultObservationCategory   = "behavior"
	DefaultObservationConfidence = 0.7
	maxExchangeLen               = 500
	maxNoteLen                   = 200
)

// Record is a memory waiting to be stored. The concrete types are
// Conversation, Knowledge, EmotionEvent, Goal and Observation.
type Record interface {
	Kind() Kind
	document(agentName string) (string, Metadata)
}

// Conversation is one user/companion exchange.
type Conversation struct {
	UserInput         string
	Response          string
	Emotion           string
	Topics            []string
	RelationshipStage string

	// Extra is merged into the metadata with values cut to 200 characters.
	// It cannot replace the keys written by the store.
	Extra map[string]string
}

func (Conversation) Kind() Kind { return KindConversations }

func (c Conversation) document(agentName string) (string, Metadata) {
	user := Sanitize(c.UserInput)
	reply := Sanitize(c.Response)

	meta := Metadata{}
	for k, v := range c.Extra {
		meta[k] = truncate(Sanitize(v), maxNoteLen)
	}
	meta[KeyEmotion] = orDefault(c.Emotion, DefaultEmotion)
	meta["user_input"] = truncate(user, maxExchangeLen)
	meta["bot_response"] = truncate(reply, maxExchangeLen)
	meta["relationship_stage"] = c.RelationshipStage
	meta["topics"] = strings.Join(c.Topics, ",")

	return "User: " + user + "\n" + agentName + ": " + reply, meta
}

// Knowledge is a fact about the user or the world.
type Knowledge struct {
	Fact       string
	Source     string
	Confidence float64
	Category   string
}

func (Knowledge) Kind() Kind { return KindKnowledge }

func (k Knowledge) document(string) (string, Metadata) {
	return Sanitize(k.Fact), Metadata{
		KeySource:     orDefault(k.Source, DefaultKnowledgeSource),
		KeyConfidence: formatFloat(orDefaultFloat(k.Confidence, DefaultKnowledgeConfidence)),
		KeyCategory:   orDefault(k.Category, DefaultKnowledgeCategory),
	}
}

// EmotionEvent is an emotional state worth remembering.
type EmotionEvent struct {
	Description string
	Emotion     string
	Intensity   float64
	Trigger     string
}

func (EmotionEvent) Kind() Kind { return KindEmotions }

func (e EmotionEvent) document(string) (string, Metadata) {
	return Sanitize(e.Description), Metadata{
		KeyEmotion:   e.Emotion,
		KeyIntensity: formatFloat(orDefaultFloat(e.Intensity, DefaultIntensity)),
		"trigger":    truncate(Sanitize(e.Trigger), maxNoteLen),
	}
}

// Goal is a goal or plan.
type Goal struct {
	Goal     string
	Status   string
	Priority int
	Context  string
}

func (Goal) Kind() Kind { return KindGoals }

func (g Goal) document(string) (string, Metadata) {
	priority := g.Priority
	if priority == 0 {
		priority = DefaultGoalPriority
	}
	return Sanitize(g.Goal), Metadata{
		KeyStatus:   orDefault(g.Status, DefaultGoalStatus),
		KeyPriority: strconv.Itoa(priority),
		"context":   truncate(Sanitize(g.Context), maxNoteLen),
	}
}

// Observation is something noticed about the user's behavior.
type Observation struct {
	Observation string
	Category    string
	Confidence  float64
}

func (Observation) Kind() Kind { return KindObservations }

func (o Observation) document(string) (string, Metadata) {
	return Sanitize(o.Observation), Metadata{
		KeyCategory:   orDefault(o.Category, DefaultObservationCategory),
		KeyConfidence: formatFloat(orDefaultFloat(o.Confidence, DefaultObservationConfidence)),
	}
}

// Sanitize drops byte sequences that are not valid UTF-8. Applying it twice
// gives the same result as applying it once.
func Sanitize(s string) string {
	return strings.ToValidUTF8(s, "")
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
