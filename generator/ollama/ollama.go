// Package ollama implements core.Generator with a local Ollama server.
package ollama

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	ollama "github.com/ollama/ollama/api"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3.2"
)

// Config configures the generator.
type Config struct {
	// Host defaults to $OLLAMA_HOST, then DefaultHost.
	Host    string
	Model   string
	Timeout time.Duration
}

// Generator streams a completion from /api/generate and joins the chunks.
type Generator struct {
	client *ollama.Client
	model  string
}

// New creates a generator. It does not contact the server.
func New(cfg Config) (*Generator, error) {
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
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Generator{
		client: ollama.NewClient(u, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}, nil
}

// Generate returns the model's completion of prompt under system.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	var text strings.Builder

	req := &ollama.GenerateRequest{
		Model:  g.model,
		Prompt: prompt,
		System: system,
	}
	err := g.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", goerr.Wrap(err, "ollama generate", goerr.V("model", g.model))
	}
	return text.String(), nil
}
