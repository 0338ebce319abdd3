package memory_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/memory"
)

var base = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeIndex scores documents by word overlap with the query:
// distance = 2 * (1 - shared/queryWords), so a full overlap has distance 0
// and no overlap has distance 2.
type fakeIndex struct {
	mu        sync.Mutex
	docs      []memory.Document
	addErr    error
	queryErr  error
	lastLimit int
	lastWhere map[string]string
}

func words(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[strings.Trim(w, ".,!?'\"")] = true
	}
	return out
}

func (f *fakeIndex) Add(_ context.Context, doc memory.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, text string, n int, where map[string]string) ([]memory.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = n
	f.lastWhere = where
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	q := words(text)
	var matches []memory.Match
	for _, d := range f.docs {
		if !matchesWhere(d.Metadata, where) {
			continue
		}
		shared := 0
		dw := words(d.Text)
		for w := range q {
			if dw[w] {
				shared++
			}
		}
		distance := 2.0
		if len(q) > 0 {
			distance = 2 * (1 - float64(shared)/float64(len(q)))
		}
		matches = append(matches, memory.Match{ID: d.ID, Text: d.Text, Metadata: d.Metadata, Distance: distance})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

func (f *fakeIndex) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func matchesWhere(meta memory.Metadata, where map[string]string) bool {
	for k, v := range where {
		if meta[k] != v {
			return false
		}
	}
	return true
}

type fakeProvider struct {
	mu        sync.Mutex
	indexes   map[string]*fakeIndex
	openErr   map[string]error
	deleteErr error
	createErr error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{indexes: map[string]*fakeIndex{}, openErr: map[string]error{}}
}

func (p *fakeProvider) GetOrCreate(name string) (memory.TextIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.openErr[name]; err != nil {
		return nil, err
	}
	idx, ok := p.indexes[name]
	if !ok {
		idx = &fakeIndex{}
		p.indexes[name] = idx
	}
	return idx, nil
}

func (p *fakeProvider) Create(name string) (memory.TextIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	idx := &fakeIndex{}
	p.indexes[name] = idx
	return idx, nil
}

func (p *fakeProvider) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deleteErr != nil {
		return p.deleteErr
	}
	delete(p.indexes, name)
	return nil
}

func (p *fakeProvider) index(k memory.Kind) *fakeIndex {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indexes[string(k)]
}

var errBoom = errors.New("boom")

func testConfig(clock *fakeClock) memory.Config {
	cfg := memory.DefaultConfig()
	cfg.Clock = clock.Now
	cfg.Logger = logging.Discard()
	return cfg
}

func newTestStore(provider memory.IndexProvider) (*memory.Store, *fakeClock) {
	clock := &fakeClock{now: base}
	return memory.New(context.Background(), testConfig(clock), provider), clock
}
