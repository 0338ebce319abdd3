// Package ollama embeds text through a local Ollama server.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	ollama "github.com/ollama/ollama/api"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "nomic-embed-text"
)

// Config configures the Ollama embedder.
type Config struct {
	// Host is the server URL. Defaults to $OLLAMA_HOST, then DefaultHost.
	Host string

	// Model is the embedding model. Defaults to DefaultModel.
	Model string

	// Dimensions is reported before the first embedding arrives. It is
	// replaced by the size of the first vector returned. Defaults to 768.
	Dimensions int

	// Timeout bounds each HTTP request (default 60s).
	Timeout time.Duration
}

// Embedder calls Ollama's embed endpoint.
type Embedder struct {
	client *ollama.Client
	model  string
	dims   atomic.Int64
}

// New creates an Ollama embedder. It does not contact the server.
func New(cfg Config) (*Embedder, error) {
	host := cfg.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = DefaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid ollama host", goerr.V("host", host))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 768
	}

	e := &Embedder{
		client: ollama.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}
	e.dims.Store(int64(cfg.Dimensions))
	return e, nil
}

// Embed returns the embedding of text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Embed(ctx, &ollama.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "ollama embed", goerr.V("model", e.model))
	}
	if res == nil || len(res.Embeddings) == 0 || len(res.Embeddings[0]) == 0 {
		return nil, goerr.New("ollama returned no embedding", goerr.V("model", e.model))
	}
	vec := res.Embeddings[0]
	e.dims.Store(int64(len(vec)))
	return vec, nil
}

// Dimensions returns the size of the last vector returned, or the
// configured size before the first call.
func (e *Embedder) Dimensions() int {
	return int(e.dims.Load())
}
