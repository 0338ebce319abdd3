package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/generator/ollama"
)

func TestGenerateJoinsStream(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/api/generate")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		_ = enc.Encode(map[string]any{"model": "m", "response": "The user ", "done": false})
		_ = enc.Encode(map[string]any{"model": "m", "response": "likes tea.", "done": true, "done_reason": "stop"})
	}))
	defer srv.Close()

	g, err := ollama.New(ollama.Config{Host: srv.URL, Model: "m"})
	gt.NoError(t, err)

	out, err := g.Generate(context.Background(), "summarize", "conversations...")
	gt.NoError(t, err)
	gt.Equal(t, out, "The user likes tea.")
	gt.Equal(t, req["system"], any("summarize"))
	gt.Equal(t, req["prompt"], any("conversations..."))
}

func TestGenerateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'm' not found"}`))
	}))
	defer srv.Close()

	g, err := ollama.New(ollama.Config{Host: srv.URL, Model: "m"})
	gt.NoError(t, err)
	_, err = g.Generate(context.Background(), "", "hi")
	gt.Error(t, err)
}
