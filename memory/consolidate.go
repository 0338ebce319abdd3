package memory

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/core"
)

const consolidateSystem = "You compress a companion's memories into durable facts. " +
	"Answer with one short factual paragraph about the user. Do not invent details."

// Consolidate summarizes up to n conversations about topic with gen and
// stores the summary as knowledge. It returns the summary.
func (s *Store) Consolidate(ctx context.Context, gen core.Generator, topic string, n int) (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}
	if gen == nil {
		return "", goerr.New("no generator configured for consolidation")
	}

	results, err := s.Query(ctx, topic, KindConversations, n, WithTimeWeight(0))
	if err != nil {
		return "", goerr.Wrap(err, "recall conversations", goerr.V("topic", topic))
	}
	if len(results) == 0 {
		return "", goerr.Wrap(ErrNothingToConsolidate, "consolidate", goerr.V("topic", topic))
	}

	var b strings.Builder
	b.WriteString("Topic: ")
	b.WriteString(topic)
	b.WriteString("\n\nConversations:\n")
	for _, r := range results {
		b.WriteString("- [")
		b.WriteString(r.Metadata.Date())
		b.WriteString("] ")
		b.WriteString(strings.ReplaceAll(r.Text, "\n", " | "))
		b.WriteString("\n")
	}

	summary, err := gen.Generate(ctx, consolidateSystem, b.String())
	if err != nil {
		return "", goerr.Wrap(err, "generate summary", goerr.V("topic", topic))
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", goerr.New("empty summary", goerr.V("topic", topic))
	}

	if _, err := s.Put(ctx, Knowledge{
		Fact:       summary,
		Source:     "consolidation",
		Confidence: 0.6,
		Category:   "summary",
	}); err != nil {
		return "", err
	}
	s.log.Info("memories consolidated", "topic", topic, "conversations", len(results))
	return summary, nil
}
