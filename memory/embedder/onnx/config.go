// Package onnx embeds text locally with an all-MiniLM-L6-v2 ONNX model.
//
// The inference half needs the ONNX Runtime shared library and is built
// only with the "onnx" build tag. The tokenizer and pooling are plain Go.
package onnx

import (
	"os"
	"path/filepath"
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file. Defaults to
	// tokenizer.json next to the model.
	TokenizerPath string

	// SharedLibraryPath points at libonnxruntime. Defaults to
	// $ONNXRUNTIME_LIB; empty leaves the runtime's own lookup in place.
	SharedLibraryPath string

	// Dimensions is the embedding vector size (default: 384 for all-MiniLM-L6-v2).
	Dimensions int

	// MaxSequenceLength is the padded input length (default: 128).
	MaxSequenceLength int
}

func (c Config) withDefaults() Config {
	if c.TokenizerPath == "" && c.ModelPath != "" {
		c.TokenizerPath = filepath.Join(filepath.Dir(c.ModelPath), "tokenizer.json")
	}
	if c.SharedLibraryPath == "" {
		c.SharedLibraryPath = os.Getenv("ONNXRUNTIME_LIB")
	}
	if c.Dimensions == 0 {
		c.Dimensions = 384
	}
	if c.MaxSequenceLength < 3 {
		c.MaxSequenceLength = 128
	}
	return c
}
