package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend mimics the OpenAI-compatible surface Ollama exposes under /v1.
type stubBackend struct {
	models    []string
	reply     string
	lastModel string
}

func (s *stubBackend) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			ID     string `json:"id"`
			Object string `json:"object"`
		}
		data := make([]model, 0, len(s.models))
		for _, m := range s.models {
			data = append(data, model{ID: m, Object: "model"})
		}
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		s.lastModel = req.Model

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": s.reply}},
			},
		})
	})
	return httptest.NewServer(mux)
}

func newStubClient(t *testing.T, backend *stubBackend) *Client {
	t.Helper()
	srv := backend.server()
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v1", "ollama", "", time.Second)
}

func TestHealthCheck(t *testing.T) {
	c := newStubClient(t, &stubBackend{models: []string{"codellama:7b", "mistral"}})

	h := c.HealthCheck(context.Background())
	assert.True(t, h.Healthy())
	assert.Equal(t, []string{"codellama:7b", "mistral"}, h.Models)
}

func TestHealthCheckBackendDown(t *testing.T) {
	srv := (&stubBackend{}).server()
	srv.Close()
	c := NewClient(srv.URL+"/v1", "ollama", "", time.Second)

	h := c.HealthCheck(context.Background())
	assert.False(t, h.Healthy())
	assert.NotEmpty(t, h.Err)
}

func TestSelectBestModelPriorityOrder(t *testing.T) {
	c := newStubClient(t, &stubBackend{
		models: []string{"deepseek-coder:6.7b", "codellama:13b", "mistral"},
	})

	model, ok := c.SelectBestModel(context.Background())
	require.True(t, ok)
	assert.Equal(t, "codellama:13b", model)
	assert.Equal(t, "codellama:13b", c.Model())
}

func TestSelectBestModelSubstringFallback(t *testing.T) {
	c := newStubClient(t, &stubBackend{models: []string{"mistral", "starcoder:3b"}})

	model, ok := c.SelectBestModel(context.Background())
	require.True(t, ok)
	assert.Equal(t, "starcoder:3b", model)
}

func TestSelectBestModelNoneSuitable(t *testing.T) {
	c := newStubClient(t, &stubBackend{models: []string{"mistral"}})

	_, ok := c.SelectBestModel(context.Background())
	assert.False(t, ok)
	assert.Empty(t, c.Model())
}

func TestGenerateUsesSelectedModel(t *testing.T) {
	backend := &stubBackend{models: []string{"codellama:7b"}, reply: "Summary: fine."}
	c := newStubClient(t, backend)

	_, ok := c.SelectBestModel(context.Background())
	require.True(t, ok)

	text, err := c.Generate(context.Background(), "prompt", "system", 0.3, 100)
	require.NoError(t, err)
	assert.Equal(t, "Summary: fine.", text)
	assert.Equal(t, "codellama:7b", backend.lastModel)
}

func TestGenerateFallsBackToDefaultModel(t *testing.T) {
	backend := &stubBackend{reply: "ok"}
	c := newStubClient(t, backend)

	_, err := c.Generate(context.Background(), "prompt", "", 0.3, 100)
	require.NoError(t, err)
	assert.Equal(t, defaultModel, backend.lastModel)
}
