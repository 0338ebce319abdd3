package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// RecallResult is one scored memory. Scores are computed at recall time
// and never stored.
type RecallResult struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Collection    Kind     `json:"collection"`
	Metadata      Metadata `json:"metadata"`
	SemanticScore float64  `json:"semantic_score"`
	TimeScore     float64  `json:"time_score"`
	CombinedScore float64  `json:"combined_score"`
	Distance      float64  `json:"distance"`
}

type recallOptions struct {
	timeWeight *float64
	where      map[string]string
}

// RecallOption adjusts a single recall.
type RecallOption func(*recallOptions)

// WithTimeWeight overrides the configured time weight. Values outside
// [0, 1] are clamped.
func WithTimeWeight(w float64) RecallOption {
	return func(o *recallOptions) {
		w = clamp01(w)
		o.timeWeight = &w
	}
}

// WithWhere restricts matches to records whose metadata contains every
// key/value pair in where.
func WithWhere(where map[string]string) RecallOption {
	return func(o *recallOptions) {
		o.where = where
	}
}

// Recall searches kind (or every collection for KindAll) and returns at
// most 2*n results ordered by combined score. Failures are logged and
// yield fewer or no results.
func (s *Store) Recall(ctx context.Context, query string, kind Kind, n int, opts ...RecallOption) []RecallResult {
	results, err := s.Query(ctx, query, kind, n, opts...)
	if err != nil && !errors.Is(err, ErrDisabled) {
		s.log.Warn("memory recall incomplete", "kind", kind, "error", err)
	}
	return results
}

// Query is Recall with errors. A failing collection is skipped and its
// error joined into the returned error; the results of the other
// collections are still returned.
func (s *Store) Query(ctx context.Context, query string, kind Kind, n int, opts ...RecallOption) ([]RecallResult, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}
	s.metrics.recalls.Add(1)

	var o recallOptions
	for _, opt := range opts {
		opt(&o)
	}
	timeWeight := s.cfg.TimeWeight
	if o.timeWeight != nil {
		timeWeight = *o.timeWeight
	}
	if n < 1 {
		n = s.cfg.DefaultResults
	}
	n = min(n, MaxResults)

	targets := kinds
	if kind != KindAll {
		if !kind.Valid() {
			return nil, goerr.Wrap(ErrUnknownKind, "recall", goerr.V("kind", kind))
		}
		targets = []Kind{kind}
	}

	now := s.cfg.Clock()
	var (
		results []RecallResult
		errs    []error
	)
	for _, k := range targets {
		matches, err := s.queryCollection(ctx, k, query, n, o.where)
		if err != nil {
			s.metrics.queryFailures.Add(1)
			errs = append(errs, err)
			continue
		}
		for _, m := range matches {
			results = append(results, s.score(k, m, timeWeight, now))
		}
	}

	rank(results)
	if limit := n * 2; len(results) > limit {
		results = results[:limit]
	}
	return results, errors.Join(errs...)
}

func (s *Store) queryCollection(ctx context.Context, k Kind, query string, n int, where map[string]string) ([]Match, error) {
	sl := s.slots[k]
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	count := sl.index.Count()
	if count == 0 {
		return nil, nil
	}
	if n > count {
		n = count
	}
	matches, err := sl.index.Query(ctx, query, n, where)
	if err != nil {
		return nil, goerr.Wrap(fmt.Errorf("%w: %w", ErrQuery, err), "query collection",
			goerr.V("collection", sl.name), goerr.V("limit", n))
	}
	return matches, nil
}

// rank sorts by combined score, highest first. Equal scores keep their
// collection order.
func rank(results []RecallResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
}

// RecallConversations searches past exchanges.
func (s *Store) RecallConversations(ctx context.Context, query string, n int) []RecallResult {
	return s.Recall(ctx, query, KindConversations, n)
}

// SearchConversations searches past exchanges, optionally only those
// recorded with the given emotion.
func (s *Store) SearchConversations(ctx context.Context, query string, n int, emotion string) []RecallResult {
	var opts []RecallOption
	if emotion != "" {
		opts = append(opts, WithWhere(map[string]string{KeyEmotion: emotion}))
	}
	return s.Recall(ctx, query, KindConversations, n, opts...)
}

// RecallAboutUser merges knowledge and observations about the user and
// returns the best n.
func (s *Store) RecallAboutUser(ctx context.Context, query string, n int) []RecallResult {
	if n < 1 {
		n = s.cfg.DefaultResults
	}
	results := s.Recall(ctx, query, KindKnowledge, n)
	results = append(results, s.Recall(ctx, query, KindObservations, n)...)
	rank(results)
	if len(results) > n {
		results = results[:n]
	}
	return results
}

// EmotionalContext returns up to n emotion events closest to the
// configured emotional query, newest first. Records are not time scored.
func (s *Store) EmotionalContext(ctx context.Context, n int) []Match {
	if !s.enabled {
		return nil
	}
	if n < 1 {
		n = s.cfg.DefaultResults
	}
	matches, err := s.queryCollection(ctx, KindEmotions, s.cfg.EmotionalQuery, n, nil)
	if err != nil {
		s.metrics.queryFailures.Add(1)
		s.log.Warn("failed to read emotional context", "error", err)
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		ti, _ := matches[i].Metadata.Timestamp()
		tj, _ := matches[j].Metadata.Timestamp()
		return ti.After(tj)
	})
	return matches
}

// noContext is returned by RelevantContext when nothing was recalled.
const noContext = "No relevant past context found."

// RelevantContext formats the best memories for prompt injection.
func (s *Store) RelevantContext(ctx context.Context, input string, max int) string {
	results := s.Recall(ctx, input, KindAll, max)
	if len(results) == 0 {
		return noContext
	}
	return FormatResults(results)
}

// FormatResults renders results as a numbered block headed by
// "Relevant memories:".
func FormatResults(results []RecallResult) string {
	lines := []string{"Relevant memories:"}
	for i, r := range results {
		lines = append(lines,
			fmt.Sprintf("\n%d. [%s] (relevance: %s, date: %s)",
				i+1, r.Collection, formatScore(r.CombinedScore), r.Metadata.Date()),
			"   "+truncate(r.Text, maxNoteLen),
		)
	}
	return strings.Join(lines, "\n")
}

// formatScore prints v rounded to three decimals: 0.85, 0.912, 1.0.
func formatScore(v float64) string {
	out := formatFloat(math.Round(v*1000) / 1000)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}
