package openai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/codelens-ai/codelens/internal/domain/enrichment"
)

// Preferred code models, best first. Ollama exposes installed models under
// these names through its OpenAI-compatible API.
var modelPriority = []string{
	"codellama:13b",
	"codellama:7b",
	"deepseek-coder:6.7b",
	"deepseek-coder:33b",
	"codellama:34b",
}

const (
	defaultModel       = "codellama:7b"
	healthCheckTimeout = 5 * time.Second
)

// Client implements enrichment.InferenceClient against any OpenAI-compatible
// endpoint (Ollama's /v1 API included).
type Client struct {
	api     *openai.Client
	timeout time.Duration

	mu    sync.Mutex
	model string
}

// NewClient builds a client for the given endpoint. An empty baseURL targets
// the OpenAI API itself; for Ollama pass e.g. http://localhost:11434/v1.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model, timeout: timeout}
}

// Model returns the currently selected model.
func (c *Client) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// HealthCheck lists the backend's models; failures land in the Health value.
func (c *Client) HealthCheck(ctx context.Context) enrichment.Health {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	list, err := c.api.ListModels(ctx)
	if err != nil {
		return enrichment.Health{
			Status: "unhealthy",
			Models: []string{},
			Err:    fmt.Sprintf("cannot reach inference service: %v", err),
		}
	}

	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	return enrichment.Health{Status: "healthy", Models: models}
}

// SelectBestModel picks the highest-priority installed model, falling back
// to anything that looks like a code model.
func (c *Client) SelectBestModel(ctx context.Context) (string, bool) {
	health := c.HealthCheck(ctx)
	if !health.Healthy() {
		return "", false
	}

	installed := make(map[string]bool, len(health.Models))
	for _, m := range health.Models {
		installed[m] = true
	}
	for _, m := range modelPriority {
		if installed[m] {
			c.setModel(m)
			return m, true
		}
	}
	for _, m := range health.Models {
		lower := strings.ToLower(m)
		if strings.Contains(lower, "code") || strings.Contains(lower, "llama") {
			c.setModel(m)
			return m, true
		}
	}
	return "", false
}

func (c *Client) setModel(m string) {
	c.mu.Lock()
	c.model = m
	c.mu.Unlock()
}

// Generate runs one chat completion under the client timeout.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.Model()
	if model == "" {
		model = defaultModel
	}

	messages := []openai.ChatCompletionMessage{}
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion from model %s", model)
	}
	return resp.Choices[0].Message.Content, nil
}
