//go:build onnx

package cmd

import (
	"github.com/becomeliminal/nim-memory/config"
	"github.com/becomeliminal/nim-memory/memory"
	"github.com/becomeliminal/nim-memory/memory/embedder/onnx"
)

func newONNXEmbedder(ec config.EmbedderConfig) (memory.Embedder, error) {
	return onnx.New(onnx.Config{
		ModelPath:         ec.ONNX.ModelPath,
		TokenizerPath:     ec.ONNX.TokenizerPath,
		SharedLibraryPath: ec.ONNX.LibraryPath,
		Dimensions:        ec.Dimensions,
	})
}
