package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/runebook/ambient/internal/sanitize"
)

const defaultOllamaModel = "llama3.2"

// Ollama talks to a local inference server. Sanitized context never
// leaves the machine with this backend, but it still goes through the
// same sanitize-then-truncate path as the hosted one.
type Ollama struct {
	cfg       *Config
	model     string
	retry     RetryConfig
	sanitizer *sanitize.Sanitizer
	client    *http.Client
}

// NewOllama creates the local inference backend.
func NewOllama(cfg *Config) (*Ollama, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ollama provider requires an endpoint")
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{
		cfg:       cfg,
		model:     model,
		retry:     DefaultRetryConfig(),
		sanitizer: sanitize.New(),
		client:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (o *Ollama) Name() string { return string(KindOllama) }

// IsAvailable probes the server's model list with a short deadline.
func (o *Ollama) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, "GET", o.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (o *Ollama) SanitizeContext(raw sanitize.AnalysisContext) *sanitize.SanitizedContext {
	return o.sanitizer.Sanitize(raw)
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// Analyze sends one generate call and parses the suggestions out of the
// model's reply.
func (o *Ollama) Analyze(ctx context.Context, req *Request) (*Result, error) {
	prompt := buildPrompt(req, o.cfg.Safety.MaxContextLength)

	var generated ollamaGenerateResponse
	err := retryWithBackoff(ctx, o.retry, "ollama generate", func(ctx context.Context) error {
		body, err := json.Marshal(ollamaGenerateRequest{
			Model:  o.model,
			Prompt: prompt,
			Stream: false,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", o.cfg.Endpoint+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return json.NewDecoder(resp.Body).Decode(&generated)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	suggestions, err := parseSuggestions(generated.Response, o.Name(), req.CommandID, now)
	if err != nil {
		return nil, err
	}

	return &Result{
		Suggestions: suggestions,
		Provenance: Provenance{
			Provider:   o.Name(),
			Model:      o.model,
			Timestamp:  now,
			TokenCount: generated.EvalCount,
		},
	}, nil
}
