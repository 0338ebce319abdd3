//go:build !onnx

package cmd

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/becomeliminal/nim-memory/config"
	"github.com/becomeliminal/nim-memory/memory"
)

func newONNXEmbedder(config.EmbedderConfig) (memory.Embedder, error) {
	return nil, goerr.New("onnx embedder not available: rebuild with -tags onnx")
}
