package enrichment

import "context"

// Health describes the inference backend and its installed models.
type Health struct {
	Status string   `json:"status"`
	Models []string `json:"models"`
	Err    string   `json:"error,omitempty"`
}

// Healthy reports whether the backend answered the probe.
func (h Health) Healthy() bool { return h.Status == "healthy" }

// InferenceClient port (interface untuk LLM backend)
type InferenceClient interface {
	// HealthCheck probes the backend and lists available models. Failures
	// are reported in the Health value, not as an error.
	HealthCheck(ctx context.Context) Health
	// SelectBestModel picks the preferred installed model and remembers it
	// for subsequent Generate calls; ok is false when none fits.
	SelectBestModel(ctx context.Context) (model string, ok bool)
	// Generate produces a completion for the prompt. The implementation
	// bounds the call with its own timeout so a wedged backend cannot hang
	// a job forever.
	Generate(ctx context.Context, prompt, systemPrompt string, temperature float32, maxTokens int) (string, error)
}

// ContentReader port (interface untuk source access)
type ContentReader interface {
	// ReadFile resolves path against projectRoot and returns the file text.
	ReadFile(path, projectRoot string) (string, error)
}
