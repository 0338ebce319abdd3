// Package chromem provides memory collections backed by chromem-go, a pure
// Go embedded vector database.
package chromem

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/memory"
)

// DirName is the directory under the data directory that holds the
// persistent collections.
const DirName = "chroma_v2"

// Provider hands out chromem collections that embed text with a
// memory.Embedder.
type Provider struct {
	db       *chromem.DB
	embedder memory.Embedder

	mu          sync.RWMutex
	collections map[string]*Collection
}

// Open opens (or creates) the persistent database under
// dataDir/chroma_v2.
func Open(dataDir string, embedder memory.Embedder) (*Provider, error) {
	if embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	path := filepath.Join(dataDir, DirName)
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, goerr.Wrap(err, "open chromem database", goerr.V("path", path))
	}
	return newProvider(db, embedder), nil
}

// Opener returns a memory.Opener for Open(dataDir, embedder).
func Opener(dataDir string, embedder memory.Embedder) memory.Opener {
	return func() (memory.IndexProvider, error) {
		p, err := Open(dataDir, embedder)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// NewInMemory creates a provider whose collections live only in memory.
func NewInMemory(embedder memory.Embedder) *Provider {
	return newProvider(chromem.NewDB(), embedder)
}

func newProvider(db *chromem.DB, embedder memory.Embedder) *Provider {
	return &Provider{
		db:          db,
		embedder:    embedder,
		collections: make(map[string]*Collection),
	}
}

func (p *Provider) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return p.embedder.Embed(ctx, text)
	}
}

// GetOrCreate returns the named collection, creating it if needed.
func (p *Provider) GetOrCreate(name string) (memory.TextIndex, error) {
	p.mu.RLock()
	col, exists := p.collections[name]
	p.mu.RUnlock()
	if exists {
		return col, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if col, exists := p.collections[name]; exists {
		return col, nil
	}

	c, err := p.db.GetOrCreateCollection(name, nil, p.embeddingFunc())
	if err != nil {
		return nil, goerr.Wrap(err, "get or create collection", goerr.V("collection", name))
	}
	col = &Collection{name: name, col: c, embed: p.embeddingFunc()}
	p.collections[name] = col
	return col, nil
}

// Create creates an empty collection. An existing collection of the same
// name must have been deleted first.
func (p *Provider) Create(name string) (memory.TextIndex, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, err := p.db.CreateCollection(name, nil, p.embeddingFunc())
	if err != nil {
		return nil, goerr.Wrap(err, "create collection", goerr.V("collection", name))
	}
	col := &Collection{name: name, col: c, embed: p.embeddingFunc()}
	p.collections[name] = col
	return col, nil
}

// Delete drops the named collection and its documents.
func (p *Provider) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.db.DeleteCollection(name); err != nil {
		return goerr.Wrap(err, "delete collection", goerr.V("collection", name))
	}
	delete(p.collections, name)
	return nil
}

// Collection is a memory.TextIndex over one chromem collection.
type Collection struct {
	name  string
	col   *chromem.Collection
	embed chromem.EmbeddingFunc
}

// Add embeds and stores doc.
func (c *Collection) Add(ctx context.Context, doc memory.Document) error {
	err := c.col.AddDocument(ctx, chromem.Document{
		ID:       doc.ID,
		Content:  doc.Text,
		Metadata: map[string]string(doc.Metadata),
	})
	if err != nil {
		return goerr.Wrap(err, "add document", goerr.V("collection", c.name), goerr.V("id", doc.ID))
	}
	return nil
}

// Query returns up to n documents closest to text. chromem-go refuses a
// limit larger than the number of (matching) documents, so the limit is
// lowered until the query is accepted. Empty text is embedded like any
// other and matches whatever is nearest.
func (c *Collection) Query(ctx context.Context, text string, n int, where map[string]string) ([]memory.Match, error) {
	if count := c.col.Count(); n > count {
		n = count
	}
	if n < 1 {
		return nil, nil
	}

	// chromem rejects empty query text but not an empty text's embedding.
	vec, err := c.embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "embed query", goerr.V("collection", c.name))
	}

	var results []chromem.Result
	for limit := n; limit >= 1; limit-- {
		results, err = c.col.QueryEmbedding(ctx, vec, limit, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if limit == 1 {
				return nil, nil
			}
			continue
		}
		return nil, goerr.Wrap(err, "chromem query", goerr.V("collection", c.name), goerr.V("limit", limit))
	}

	matches := make([]memory.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, memory.Match{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: memory.Metadata(r.Metadata),
			Distance: 1 - float64(r.Similarity),
		})
	}
	return matches, nil
}

// Count returns the number of documents in the collection.
func (c *Collection) Count() int {
	return c.col.Count()
}

// isInsufficientDocsError checks if error is due to insufficient documents.
func isInsufficientDocsError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
