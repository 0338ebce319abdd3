// Package cache puts a ristretto cache in front of an embedder so repeated
// texts (recall queries, re-stored facts) are embedded once.
package cache

import (
	"context"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/memory"
)

// DefaultMaxBytes bounds the cache at 64 MiB of vectors.
const DefaultMaxBytes = 64 << 20

// Embedder caches the vectors produced by another embedder, keyed by text.
type Embedder struct {
	next  memory.Embedder
	cache *ristretto.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// New wraps next with a cache holding at most maxBytes of vectors.
func New(next memory.Embedder, maxBytes int64) (*Embedder, error) {
	if next == nil {
		return nil, goerr.New("embedder to cache is required")
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	// Counters ~10x the expected number of 384-dim entries.
	entries := maxBytes / (4 * int64(max(next.Dimensions(), 1)))
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: max(entries*10, 1000),
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "create embedding cache")
	}
	return &Embedder{next: next, cache: c}, nil
}

// Embed returns the cached vector for text or computes and caches it.
// Callers must not modify the returned slice.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			e.hits.Add(1)
			return vec, nil
		}
	}
	e.misses.Add(1)

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

// Stats returns cache hits and misses.
func (e *Embedder) Stats() (hits, misses int64) {
	return e.hits.Load(), e.misses.Load()
}

// Wait blocks until pending cache writes are applied.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close releases the cache.
func (e *Embedder) Close() {
	e.cache.Close()
}
