// Package provider abstracts the analysis backends that turn a sanitized
// error context into suggestions. Callers talk to the Provider interface
// only; which backend sits behind it is a configuration concern.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/runebook/ambient/internal/sanitize"
	"github.com/runebook/ambient/internal/types"
)

// Kind identifies one provider backend.
type Kind string

const (
	// KindStub is a deterministic in-process provider for tests and demos.
	KindStub Kind = "stub"

	// KindOllama talks to a local inference server.
	KindOllama Kind = "ollama"

	// KindAnthropic talks to the hosted Anthropic API.
	KindAnthropic Kind = "anthropic"

	// KindMCP posts a tool call to a generic MCP-style HTTP endpoint.
	KindMCP Kind = "mcp"
)

var (
	// ErrUnavailable indicates the backend cannot be reached or is not
	// configured. The pipeline degrades to heuristics-only on it.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrTimeout indicates the backend did not answer within the
	// configured deadline.
	ErrTimeout = errors.New("provider timed out")

	// ErrConfigInvalid indicates a provider configuration that fails
	// validation. Callers should fall back to DefaultConfig.
	ErrConfigInvalid = errors.New("invalid provider configuration")
)

// Request carries everything a backend may use for one analysis call.
// The sanitized context is the only command data that crosses the
// process boundary; raw captures never do.
type Request struct {
	CommandID        string
	Summary          types.ErrorSummary
	Sanitized        *sanitize.SanitizedContext
	RepoMetadata     map[string]string
	PriorSuggestions []*types.Suggestion
}

// Provenance records where a result came from.
type Provenance struct {
	Provider   string    `json:"provider"`
	Model      string    `json:"model,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	TokenCount int       `json:"token_count,omitempty"`
}

// Result is one provider's answer for one request.
type Result struct {
	Suggestions []*types.Suggestion
	Provenance  Provenance
}

// Provider is the contract every backend implements. Implementations
// must apply the same context-length truncation before transmission, so
// switching backends never changes what data leaves the machine.
type Provider interface {
	// Name returns the backend identifier used in provenance and logs.
	Name() string

	// IsAvailable reports whether the backend can serve requests right
	// now (credentials present, endpoint reachable).
	IsAvailable(ctx context.Context) bool

	// Analyze produces suggestions for one sanitized failure context.
	Analyze(ctx context.Context, req *Request) (*Result, error)

	// SanitizeContext runs the shared sanitizer over a raw context.
	// Exposed on the interface so callers cannot accidentally hand a
	// backend unsanitized data. A detector failure never surfaces here;
	// the affected field comes back fully redacted instead.
	SanitizeContext(raw sanitize.AnalysisContext) *sanitize.SanitizedContext
}

// truncate caps s at max bytes, appending a marker when content was cut.
// Every backend routes outgoing text through this one function.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}
