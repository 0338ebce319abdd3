package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/memory/embedder/ollama"
)

func TestEmbed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/api/embed")
		var req map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      gotModel,
			"embeddings": [][]float32{{0.6, 0.8, 0}},
		})
	}))
	defer srv.Close()

	e, err := ollama.New(ollama.Config{Host: srv.URL})
	gt.NoError(t, err)
	gt.Equal(t, e.Dimensions(), 768)

	vec, err := e.Embed(context.Background(), "hello")
	gt.NoError(t, err)
	gt.Equal(t, vec, []float32{0.6, 0.8, 0})
	gt.Equal(t, gotModel, ollama.DefaultModel)
	gt.Equal(t, e.Dimensions(), 3)
}

func TestEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","embeddings":[]}`))
	}))
	defer srv.Close()

	e, err := ollama.New(ollama.Config{Host: srv.URL, Model: "m"})
	gt.NoError(t, err)
	_, err = e.Embed(context.Background(), "hello")
	gt.Error(t, err)
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	e, err := ollama.New(ollama.Config{Host: srv.URL})
	gt.NoError(t, err)
	_, err = e.Embed(context.Background(), "hello")
	gt.Error(t, err)
}
