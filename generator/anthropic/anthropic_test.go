package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/generator/anthropic"
)

func TestGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/v1/messages")
		gt.Equal(t, r.Header.Get("X-Api-Key"), "test-key")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "again"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	g, err := anthropic.New(anthropic.Config{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL})
	gt.NoError(t, err)

	out, err := g.Generate(context.Background(), "be kind", "hi")
	gt.NoError(t, err)
	gt.Equal(t, out, "Hello again")

	gt.Equal(t, body["model"], any("claude-test"))
	gt.Equal(t, body["max_tokens"], any(float64(anthropic.DefaultMaxTokens)))
	system, ok := body["system"].([]any)
	gt.True(t, ok)
	gt.A(t, system).Length(1)
}

func TestNewRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := anthropic.New(anthropic.Config{})
	gt.Error(t, err)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	g, err := anthropic.New(anthropic.Config{APIKey: "k", BaseURL: srv.URL})
	gt.NoError(t, err)
	_, err = g.Generate(context.Background(), "", "hi")
	gt.Error(t, err)
}
