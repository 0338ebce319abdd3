package chromem_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/mock"
	"github.com/becomeliminal/nim-memory/memory/store/chromem"
)

func newStore(t *testing.T, provider memory.IndexProvider) *memory.Store {
	t.Helper()
	cfg := memory.DefaultConfig()
	cfg.Logger = logging.Discard()
	s := memory.New(context.Background(), cfg, provider)
	gt.True(t, s.Enabled())
	return s
}

func TestCollectionAddQueryCount(t *testing.T) {
	ctx := context.Background()
	p := chromem.NewInMemory(mock.New())

	idx, err := p.GetOrCreate("knowledge")
	gt.NoError(t, err)
	gt.Equal(t, idx.Count(), 0)

	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "know_1", Text: "User loves hiking in the mountains", Metadata: memory.Metadata{"category": "hobby"}}))
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "know_2", Text: "User is allergic to peanuts", Metadata: memory.Metadata{"category": "health"}}))
	gt.Equal(t, idx.Count(), 2)

	matches, err := idx.Query(ctx, "hiking mountains", 2, nil)
	gt.NoError(t, err)
	gt.A(t, matches).Length(2)
	gt.Equal(t, matches[0].ID, "know_1")
	gt.Equal(t, matches[0].Metadata["category"], "hobby")
	gt.True(t, matches[0].Distance >= 0 && matches[0].Distance <= 2)
	gt.True(t, matches[0].Distance < matches[1].Distance)
}

func TestCollectionQueryCapsLimit(t *testing.T) {
	ctx := context.Background()
	p := chromem.NewInMemory(mock.New())
	idx, err := p.GetOrCreate("goals_and_plans")
	gt.NoError(t, err)
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "goal_1", Text: "Run a marathon", Metadata: memory.Metadata{"status": "active"}}))

	matches, err := idx.Query(ctx, "marathon", 10, nil)
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
}

func TestCollectionQueryWhere(t *testing.T) {
	ctx := context.Background()
	p := chromem.NewInMemory(mock.New())
	idx, err := p.GetOrCreate("conversations")
	gt.NoError(t, err)
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "conv_1", Text: "User: I got the job", Metadata: memory.Metadata{"emotion": "HAPPY"}}))
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "conv_2", Text: "User: I lost my keys", Metadata: memory.Metadata{"emotion": "SAD"}}))
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "conv_3", Text: "User: I lost the match", Metadata: memory.Metadata{"emotion": "SAD"}}))

	matches, err := idx.Query(ctx, "job", 3, map[string]string{"emotion": "HAPPY"})
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
	gt.Equal(t, matches[0].ID, "conv_1")
}

func TestProviderDeleteAndCreate(t *testing.T) {
	ctx := context.Background()
	p := chromem.NewInMemory(mock.New())
	idx, err := p.GetOrCreate("knowledge")
	gt.NoError(t, err)
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "k", Text: "fact", Metadata: memory.Metadata{}}))

	gt.NoError(t, p.Delete("knowledge"))
	fresh, err := p.Create("knowledge")
	gt.NoError(t, err)
	gt.Equal(t, fresh.Count(), 0)

	again, err := p.GetOrCreate("knowledge")
	gt.NoError(t, err)
	gt.Equal(t, again, fresh)
}

func TestPersistentReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	p, err := chromem.Open(dir, mock.New())
	gt.NoError(t, err)
	s := newStore(t, p)
	s.StoreKnowledge(ctx, memory.Knowledge{Fact: "User's birthday is in April"})
	gt.Equal(t, s.Count(), 1)

	reopened := memory.Open(ctx, func() memory.Config {
		cfg := memory.DefaultConfig()
		cfg.Logger = logging.Discard()
		return cfg
	}(), chromem.Opener(dir, mock.New()))
	gt.True(t, reopened.Enabled())
	gt.Equal(t, reopened.Stats()["knowledge"], 1)

	res := reopened.Recall(ctx, "birthday April", memory.KindKnowledge, 3)
	gt.A(t, res).Length(1)
	gt.Equal(t, res[0].Text, "User's birthday is in April")
}

func TestStoreRecallsFreshConversationFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.NewInMemory(mock.New()))

	s.StoreConversation(ctx, memory.Conversation{
		UserInput: "What's your favorite color?",
		Response:  "I find blue calming",
		Emotion:   "CALM",
	})
	s.StoreConversation(ctx, memory.Conversation{
		UserInput: "Did you watch the game?",
		Response:  "I missed it",
	})

	res := s.RecallConversations(ctx, "favorite color", 5)
	gt.A(t, res).Longer(0)
	gt.S(t, res[0].Text).Contains("favorite color")
	gt.Equal(t, res[0].Metadata["emotion"], "CALM")
	gt.True(t, res[0].TimeScore > 0.99)
}

func TestStoreStatsAndClear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.NewInMemory(mock.New()))

	s.StoreConversation(ctx, memory.Conversation{UserInput: "hi", Response: "hello"})
	s.StoreKnowledge(ctx, memory.Knowledge{Fact: "User is a nurse"})
	s.StoreEmotionEvent(ctx, memory.EmotionEvent{Description: "Felt happy", Emotion: "HAPPY"})
	s.StoreGoal(ctx, memory.Goal{Goal: "Finish the novel"})
	s.StoreObservation(ctx, memory.Observation{Observation: "User prefers short replies"})
	gt.Equal(t, s.Stats()["total"], 5)

	gt.NoError(t, s.ClearCollection(ctx, memory.KindKnowledge))
	stats := s.Stats()
	gt.Equal(t, stats["knowledge"], 0)
	gt.Equal(t, stats["conversations"], 1)
	gt.Equal(t, stats["total"], 4)

	gt.A(t, s.Recall(ctx, "xyz-nonexistent-topic", memory.KindKnowledge, 5)).Length(0)
}

func TestEmptyQueryFindsStoredMemories(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, chromem.NewInMemory(mock.New()))

	for i := 0; i < 51; i++ {
		s.StoreConversation(ctx, memory.Conversation{UserInput: fmt.Sprintf("message %d", i), Response: "ok"})
	}
	s.StoreKnowledge(ctx, memory.Knowledge{Fact: "User is a nurse"})

	res, err := s.Query(ctx, "", memory.KindAll, 5)
	gt.NoError(t, err)
	gt.A(t, res).Length(6)

	gt.A(t, s.Recall(ctx, "", memory.KindKnowledge, 3)).Length(1)

	idx, err := chromem.NewInMemory(mock.New()).GetOrCreate("knowledge")
	gt.NoError(t, err)
	gt.NoError(t, idx.Add(ctx, memory.Document{ID: "know_1", Text: "fact", Metadata: memory.Metadata{}}))
	matches, err := idx.Query(ctx, "", 1, nil)
	gt.NoError(t, err)
	gt.A(t, matches).Length(1)
}
