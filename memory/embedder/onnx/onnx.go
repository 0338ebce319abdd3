//go:build onnx

package onnx

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/becomeliminal/nim-memory/logging"
)

var (
	initOnce sync.Once
	initErr  error
)

// Embedder generates all-MiniLM-L6-v2 embeddings with ONNX Runtime,
// fully offline.
type Embedder struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tokenizer *Tokenizer
	cfg       Config
	log       *slog.Logger
}

// New loads the tokenizer and model and opens an inference session.
// The ONNX Runtime environment is initialized once per process.
func New(cfg Config) (*Embedder, error) {
	cfg = cfg.withDefaults()
	if cfg.ModelPath == "" {
		return nil, goerr.New("onnx model path is required")
	}

	initOnce.Do(func() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, goerr.Wrap(initErr, "initialize onnx runtime", goerr.V("library", cfg.SharedLibraryPath))
	}

	tokenizer, err := LoadTokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "create onnx session", goerr.V("model", cfg.ModelPath))
	}

	logger := logging.Default().With("component", "onnx")
	logger.Info("onnx embedder ready", "model", cfg.ModelPath, "dimensions", cfg.Dimensions)

	return &Embedder{
		session:   session,
		tokenizer: tokenizer,
		cfg:       cfg,
		log:       logger,
	}, nil
}

// Embed converts text to a unit-length embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxLen := e.cfg.MaxSequenceLength
	ids, mask := e.tokenizer.Encode(text, maxLen)
	typeIDs := make([]int64, maxLen)

	shape := ort.NewShape(1, int64(maxLen))
	inputs := make([]ort.Value, 0, 3)
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, data := range [][]int64{ids, mask, typeIDs} {
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, goerr.Wrap(err, "create input tensor")
		}
		inputs = append(inputs, tensor)
	}

	outputs := []ort.Value{nil}
	e.mu.Lock()
	err := e.session.Run(inputs, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, goerr.Wrap(err, "onnx inference")
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok || out == nil {
		return nil, goerr.New("unexpected onnx output type")
	}
	e.log.Debug("onnx inference", "shape", out.GetShape())

	return pool(out.GetData(), out.GetShape(), mask, e.cfg.Dimensions)
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.cfg.Dimensions
}

// Close releases the inference session.
func (e *Embedder) Close() error {
	if e.session == nil {
		return nil
	}
	if err := e.session.Destroy(); err != nil {
		return goerr.Wrap(err, "destroy onnx session")
	}
	return nil
}
