package provider

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/runebook/ambient/internal/sanitize"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// Anthropic is the hosted API backend. Calls are rate limited and
// bounded by a concurrency semaphore: suggestion traffic must never
// compete with whatever else the operator runs against the same key.
type Anthropic struct {
	cfg       *Config
	client    *anthropic.Client
	model     string
	retry     RetryConfig
	sanitizer *sanitize.Sanitizer
	limiter   *rate.Limiter
	sem       *semaphore.Weighted
}

// NewAnthropic creates the hosted API backend. The key is read from the
// environment variable named in the config, never stored in the config
// file itself.
func NewAnthropic(cfg *Config) (*Anthropic, error) {
	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "ANTHROPIC_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s not set", keyEnv)
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Anthropic{
		cfg:       cfg,
		client:    &client,
		model:     model,
		retry:     DefaultRetryConfig(),
		sanitizer: sanitize.New(),
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 3),
		sem:       semaphore.NewWeighted(2),
	}, nil
}

func (a *Anthropic) Name() string { return string(KindAnthropic) }

// IsAvailable checks the credential only. Probing the hosted API on
// every command would cost real requests.
func (a *Anthropic) IsAvailable(ctx context.Context) bool {
	return a.client != nil
}

func (a *Anthropic) SanitizeContext(raw sanitize.AnalysisContext) *sanitize.SanitizedContext {
	return a.sanitizer.Sanitize(raw)
}

// Analyze sends one message call and parses the suggestions out of the
// model's reply.
func (a *Anthropic) Analyze(ctx context.Context, req *Request) (*Result, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, wrapDeadline(err, "anthropic analyze")
	}
	defer a.sem.Release(1)

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, wrapDeadline(err, "anthropic analyze")
	}

	prompt := buildPrompt(req, a.cfg.Safety.MaxContextLength)

	var response *anthropic.Message
	err := retryWithBackoff(ctx, a.retry, "anthropic analyze", func(attemptCtx context.Context) error {
		resp, apiErr := a.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: 1024,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var responseText string
	for _, block := range response.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	now := time.Now().UTC()
	suggestions, err := parseSuggestions(responseText, a.Name(), req.CommandID, now)
	if err != nil {
		return nil, err
	}

	return &Result{
		Suggestions: suggestions,
		Provenance: Provenance{
			Provider:   a.Name(),
			Model:      a.model,
			Timestamp:  now,
			TokenCount: int(response.Usage.InputTokens + response.Usage.OutputTokens),
		},
	}, nil
}
