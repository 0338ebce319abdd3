package cmd

import (
	"context"
	"io"

	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/config"
	"github.com/becomeliminal/nim-memory/core"
	anthropicgen "github.com/becomeliminal/nim-memory/generator/anthropic"
	ollamagen "github.com/becomeliminal/nim-memory/generator/ollama"
	"github.com/becomeliminal/nim-memory/logging"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/cache"
	"github.com/becomeliminal/nim-memory/memory/embedder/mock"
	ollamaemb "github.com/becomeliminal/nim-memory/memory/embedder/ollama"
	"github.com/becomeliminal/nim-memory/memory/store/chromem"
)

// newEmbedder builds the configured embedder, wrapped in a cache when
// cache_bytes is set. The returned closer releases both.
func newEmbedder(ec config.EmbedderConfig) (memory.Embedder, func(), error) {
	var (
		emb    memory.Embedder
		closer = func() {}
	)

	switch ec.Provider {
	case config.EmbedderMock:
		if ec.Dimensions > 0 {
			emb = mock.NewWithDimensions(ec.Dimensions)
		} else {
			emb = mock.New()
		}
	case config.EmbedderOllama:
		e, err := ollamaemb.New(ollamaemb.Config{
			Host:       ec.Host,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
		})
		if err != nil {
			return nil, nil, err
		}
		emb = e
	case config.EmbedderONNX:
		e, err := newONNXEmbedder(ec)
		if err != nil {
			return nil, nil, err
		}
		emb = e
		if c, ok := e.(io.Closer); ok {
			closer = func() { c.Close() }
		}
	default:
		return nil, nil, goerr.Wrap(config.ErrInvalid, "unknown embedder provider", goerr.V("provider", ec.Provider))
	}

	if ec.CacheBytes <= 0 {
		return emb, closer, nil
	}
	cached, err := cache.New(emb, ec.CacheBytes)
	if err != nil {
		closer()
		return nil, nil, err
	}
	inner := closer
	return cached, func() {
		cached.Close()
		inner()
	}, nil
}

// openStore opens the persistent store under the configured data
// directory. An index that cannot be opened yields a disabled store, not
// an error; only a broken embedder configuration fails.
func openStore(ctx context.Context) (*memory.Store, func(), error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	emb, closer, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}

	logging.From(ctx).Debug("opening memory store",
		"dir", cfg.MemoryDir(),
		"embedder", cfg.Embedder.Provider,
	)
	store := memory.Open(ctx, cfg.StoreConfig(), chromem.Opener(cfg.MemoryDir(), emb))
	return store, closer, nil
}

// newGenerator returns the configured generator, or nil for "none".
func newGenerator(gc config.GeneratorConfig) (core.Generator, error) {
	switch gc.Provider {
	case config.GeneratorNone:
		return nil, nil
	case config.GeneratorAnthropic:
		return anthropicgen.New(anthropicgen.Config{
			APIKey:    gc.APIKey,
			Model:     gc.Model,
			MaxTokens: gc.MaxTokens,
		})
	case config.GeneratorOllama:
		return ollamagen.New(ollamagen.Config{
			Host:  gc.Host,
			Model: gc.Model,
		})
	default:
		return nil, goerr.Wrap(config.ErrInvalid, "unknown generator provider", goerr.V("provider", gc.Provider))
	}
}

// requireGenerator is newGenerator for commands that cannot run without one.
func requireGenerator() (core.Generator, error) {
	gen, err := newGenerator(cfg.Generator)
	if err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, goerr.New("no generator configured; set generator.provider or " + config.EnvGenerator)
	}
	return gen, nil
}
