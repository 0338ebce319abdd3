package memory

import (
	"context"
)

// Document is a record as handed to a TextIndex.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Match is one nearest-neighbor hit returned by a TextIndex.
// Distance is a cosine distance in [0, 2]; smaller is closer.
type Match struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// TextIndex is a nearest-neighbor index over text documents. It embeds the
// text itself.
//
// Implementations: chromem.Collection (store/chromem), the no-op index of a
// disabled store.
type TextIndex interface {
	// Add inserts a document. Adding an existing id replaces it.
	Add(ctx context.Context, doc Document) error

	// Query returns up to n documents closest to text, closest first.
	// A non-empty where restricts matches to documents whose metadata
	// contains every key/value pair.
	Query(ctx context.Context, text string, n int, where map[string]string) ([]Match, error)

	// Count returns the number of stored documents.
	Count() int
}

// IndexProvider manages the lifecycle of named collections.
type IndexProvider interface {
	// GetOrCreate opens an existing collection or creates an empty one.
	GetOrCreate(name string) (TextIndex, error)

	// Create creates an empty collection.
	Create(name string) (TextIndex, error)

	// Delete drops a collection and its documents.
	Delete(name string) error
}

// Embedder converts text to vector embeddings.
// Implementations: mock (testing), ollama (local server), onnx (offline
// all-MiniLM-L6-v2), cache (ristretto decorator).
//
// Embedders are consumed by index providers. The Store never calls one
// directly.
type Embedder interface {
	// Embed converts a single text to embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns embedding vector size.
	Dimensions() int
}

// nopIndex backs every collection of a disabled store.
type nopIndex struct{}

func (nopIndex) Add(context.Context, Document) error { return nil }

func (nopIndex) Query(context.Context, string, int, map[string]string) ([]Match, error) {
	return nil, nil
}

func (nopIndex) Count() int { return 0 }

// NopProvider hands out indexes that store nothing.
type NopProvider struct{}

func (NopProvider) GetOrCreate(string) (TextIndex, error) { return nopIndex{}, nil }
func (NopProvider) Create(string) (TextIndex, error)      { return nopIndex{}, nil }
func (NopProvider) Delete(string) error                   { return nil }
