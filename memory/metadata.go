package memory

import (
	"math"
	"strconv"
	"time"
)

// Metadata keys shared by every collection.
const (
	KeyTimestamp  = "timestamp"
	KeyEmotion    = "emotion"
	KeyIntensity  = "intensity"
	KeyConfidence = "confidence"
	KeyPriority   = "priority"
	KeyCategory   = "category"
	KeySource     = "source"
	KeyStatus     = "status"
)

// timestampLayouts are tried in order. The naive layout covers records
// written without a zone, which are read as local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Metadata is the string map stored next to every record. Accessors parse
// on read and fall back to a default when a value is missing or malformed.
type Metadata map[string]string

// Get returns the raw value for key.
func (m Metadata) Get(key string) string { return m[key] }

// Timestamp parses the record's creation time.
func (m Metadata) Timestamp() (time.Time, bool) {
	raw, ok := m[KeyTimestamp]
	if !ok || raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date returns the calendar date of the timestamp, or "unknown".
func (m Metadata) Date() string {
	raw := m[KeyTimestamp]
	if raw == "" {
		return "unknown"
	}
	if len(raw) > 10 {
		return raw[:10]
	}
	return raw
}

// Float parses key as a float, returning def when absent or malformed.
func (m Metadata) Float(key string, def float64) float64 {
	raw, ok := m[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Int parses key as an integer, returning def when absent or malformed.
func (m Metadata) Int(key string, def int) int {
	raw, ok := m[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func (m Metadata) Intensity() float64 { return m.Float(KeyIntensity, DefaultIntensity) }

func (m Metadata) Confidence(def float64) float64 { return m.Float(KeyConfidence, def) }

func (m Metadata) Priority() int { return m.Int(KeyPriority, DefaultGoalPriority) }

// Clone returns a copy that can be modified without touching m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
