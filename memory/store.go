package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/logging"
)

// Store is the multi-collection semantic memory.
//
// A Store is safe for concurrent use. Inserts and recalls on a collection
// share its read lock; clearing the collection takes the write lock, so a
// recall sees either the old index or the new one, never a half-dropped one.
type Store struct {
	cfg      Config
	log      *slog.Logger
	provider IndexProvider
	enabled  bool
	slots    map[Kind]*slot
	metrics  metrics

	// lastStamp holds the last issued id time in Unix microseconds.
	lastStamp atomic.Int64
}

type slot struct {
	mu    sync.RWMutex
	name  string
	index TextIndex
}

// Opener opens the index provider, typically chromem.Open bound to a
// data directory.
type Opener func() (IndexProvider, error)

// Open builds a Store over the provider returned by open. Any failure
// leaves the store disabled; Open itself never fails.
func Open(ctx context.Context, cfg Config, open Opener) *Store {
	if !cfg.Enabled || open == nil {
		return New(ctx, cfg, nil)
	}
	provider, err := open()
	if err != nil {
		s := newStore(ctx, cfg)
		s.disable(goerr.Wrap(fmt.Errorf("%w: %w", ErrIndexUnavailable, err), "open index provider"))
		return s
	}
	return New(ctx, cfg, provider)
}

// New builds a Store that obtains one collection per kind from provider.
// Either every collection opens, or the store is disabled. A nil provider
// or cfg.Enabled=false also yields a disabled store.
func New(ctx context.Context, cfg Config, provider IndexProvider) *Store {
	s := newStore(ctx, cfg)

	if !cfg.Enabled {
		s.log.Info("memory store disabled by configuration")
		return s
	}
	if provider == nil {
		s.disable(goerr.Wrap(ErrIndexUnavailable, "no index provider"))
		return s
	}

	opened := make(map[Kind]TextIndex, len(kinds))
	for _, k := range kinds {
		name := s.cfg.CollectionName(k)
		idx, err := provider.GetOrCreate(name)
		if err != nil {
			s.disable(goerr.Wrap(fmt.Errorf("%w: %w", ErrIndexUnavailable, err),
				"open collection", goerr.V("collection", name)))
			return s
		}
		opened[k] = idx
	}

	s.provider = provider
	s.enabled = true
	for k, idx := range opened {
		s.slots[k].index = idx
	}

	s.log.Info("memory store ready", "memories", s.Count())
	return s
}

func newStore(ctx context.Context, cfg Config) *Store {
	cfg = cfg.withDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = logging.From(ctx)
	}
	s := &Store{
		cfg:      cfg,
		log:      logger,
		provider: NopProvider{},
		slots:    make(map[Kind]*slot, len(kinds)),
	}
	for _, k := range kinds {
		s.slots[k] = &slot{name: cfg.CollectionName(k), index: nopIndex{}}
	}
	return s
}

func (s *Store) disable(err error) {
	s.enabled = false
	s.provider = NopProvider{}
	s.log.Warn("memory store disabled", "error", err)
}

// Enabled reports whether the store is backed by a working index.
func (s *Store) Enabled() bool { return s.enabled }

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.cfg }

// Put stores r and returns its id.
func (s *Store) Put(ctx context.Context, r Record) (string, error) {
	if !s.enabled {
		return "", ErrDisabled
	}
	kind := r.Kind()
	sl, ok := s.slots[kind]
	if !ok {
		return "", goerr.Wrap(ErrUnknownKind, "put record", goerr.V("kind", kind))
	}

	now := s.nextStamp()
	text, meta := r.document(s.cfg.AgentName)
	meta[KeyTimestamp] = formatTimestamp(now)
	id := makeID(kind.Prefix(), now)

	sl.mu.RLock()
	err := sl.index.Add(ctx, Document{ID: id, Text: text, Metadata: meta})
	sl.mu.RUnlock()
	if err != nil {
		s.metrics.storeFailures.Add(1)
		return "", goerr.Wrap(fmt.Errorf("%w: %w", ErrStorage, err), "add record",
			goerr.V("collection", sl.name), goerr.V("id", id))
	}

	s.metrics.stored.Add(1)
	return id, nil
}

// put is the advisory form of Put used by the Store* methods.
func (s *Store) put(ctx context.Context, r Record) {
	if !s.enabled {
		return
	}
	if _, err := s.Put(ctx, r); err != nil {
		s.log.Warn("failed to store memory", "collection", r.Kind(), "error", err)
	}
}

// StoreConversation records one exchange.
func (s *Store) StoreConversation(ctx context.Context, c Conversation) { s.put(ctx, c) }

// StoreKnowledge records a fact.
func (s *Store) StoreKnowledge(ctx context.Context, k Knowledge) { s.put(ctx, k) }

// StoreEmotionEvent records an emotional event.
func (s *Store) StoreEmotionEvent(ctx context.Context, e EmotionEvent) { s.put(ctx, e) }

// StoreGoal records a goal or plan.
func (s *Store) StoreGoal(ctx context.Context, g Goal) { s.put(ctx, g) }

// StoreObservation records an observation about the user.
func (s *Store) StoreObservation(ctx context.Context, o Observation) { s.put(ctx, o) }

// nextStamp returns the current time, bumped by a microsecond when needed
// so that every id issued by this store is unique.
func (s *Store) nextStamp() time.Time {
	now := s.cfg.Clock()
	for {
		last := s.lastStamp.Load()
		us := now.UnixMicro()
		if us <= last {
			us = last + 1
		}
		if s.lastStamp.CompareAndSwap(last, us) {
			return time.UnixMicro(us).In(now.Location())
		}
	}
}

func makeID(prefix string, t time.Time) string {
	us := t.UnixMicro()
	return fmt.Sprintf("%s_%d.%06d", prefix, us/1e6, us%1e6)
}
