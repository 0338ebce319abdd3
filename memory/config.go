package memory

import (
	"log/slog"
	"time"
)

// Defaults applied when a Config leaves a field unset.
const (
	DefaultHalfLife           = 48 * time.Hour
	DefaultResults            = 5
	MaxResults                = 1000
	DefaultTimeWeight         = 0.3
	DefaultIntensity          = 0.5
	DefaultIntensityThreshold = 0.7
	DefaultIntensityFactor    = 0.5
	DefaultAgentName          = "Seven"
	DefaultEmotionalQuery     = "recent emotional state"
)

// Config controls store behavior.
type Config struct {
	// Enabled turns the store on. A store built from a Config with
	// Enabled=false never touches the index provider.
	Enabled bool

	// Collections maps a kind to the index collection name. Kinds missing
	// from the map use their own name.
	Collections map[Kind]string

	// HalfLife is the age at which the time score falls to 0.5.
	HalfLife time.Duration

	// DefaultResults is used when a recall asks for fewer than 1 result.
	DefaultResults int

	// TimeWeight is the share of the combined score taken by recency.
	TimeWeight float64

	IntensityThreshold float64
	IntensityFactor    float64

	// AgentName labels the companion's side of stored conversations.
	AgentName string

	// EmotionalQuery is the semantic query behind EmotionalContext.
	EmotionalQuery string

	// Clock returns the current time. Tests inject a fixed clock.
	Clock func() time.Time

	// Logger defaults to the logger carried by the constructor's context.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by the companion.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		HalfLife:           DefaultHalfLife,
		DefaultResults:     DefaultResults,
		TimeWeight:         DefaultTimeWeight,
		IntensityThreshold: DefaultIntensityThreshold,
		IntensityFactor:    DefaultIntensityFactor,
		AgentName:          DefaultAgentName,
		EmotionalQuery:     DefaultEmotionalQuery,
	}
}

func (c Config) withDefaults() Config {
	if c.HalfLife <= 0 {
		c.HalfLife = DefaultHalfLife
	}
	if c.DefaultResults < 1 {
		c.DefaultResults = DefaultResults
	}
	c.TimeWeight = clamp01(c.TimeWeight)
	if c.IntensityThreshold <= 0 {
		c.IntensityThreshold = DefaultIntensityThreshold
	}
	if c.IntensityFactor <= 0 {
		c.IntensityFactor = DefaultIntensityFactor
	}
	if c.AgentName == "" {
		c.AgentName = DefaultAgentName
	}
	if c.EmotionalQuery == "" {
		c.EmotionalQuery = DefaultEmotionalQuery
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// CollectionName returns the index collection backing kind k.
func (c Config) CollectionName(k Kind) string {
	if name, ok := c.Collections[k]; ok && name != "" {
		return name
	}
	return string(k)
}
