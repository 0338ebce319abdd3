package memory

import "sync/atomic"

type metrics struct {
	stored        atomic.Int64
	storeFailures atomic.Int64
	recalls       atomic.Int64
	queryFailures atomic.Int64
	clears        atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the store counters.
type MetricsSnapshot struct {
	Stored        int64 `json:"stored"`
	StoreFailures int64 `json:"store_failures"`
	Recalls       int64 `json:"recalls"`
	QueryFailures int64 `json:"query_failures"`
	Clears        int64 `json:"clears"`
}

// Metrics returns the current counters.
func (s *Store) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Stored:        s.metrics.stored.Load(),
		StoreFailures: s.metrics.storeFailures.Load(),
		Recalls:       s.metrics.recalls.Load(),
		QueryFailures: s.metrics.queryFailures.Load(),
		Clears:        s.metrics.clears.Load(),
	}
}
