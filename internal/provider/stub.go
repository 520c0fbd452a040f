package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/runebook/ambient/internal/sanitize"
	"github.com/runebook/ambient/internal/types"
)

// Stub is a deterministic in-process provider. It is always available,
// never leaves the process, and produces the same suggestions for the
// same input. Used in tests and as a safe demo backend.
type Stub struct {
	cfg       *Config
	sanitizer *sanitize.Sanitizer

	// Canned, when set, is returned verbatim for every request.
	Canned []*types.Suggestion

	// Err, when set, is returned by Analyze. Lets tests exercise
	// provider failure paths.
	Err error

	// Calls counts Analyze invocations. Lets tests assert cache and
	// dedup behavior.
	Calls int
}

// NewStub creates the deterministic stub provider.
func NewStub(cfg *Config) *Stub {
	return &Stub{
		cfg:       cfg,
		sanitizer: sanitize.New(),
	}
}

func (s *Stub) Name() string { return string(KindStub) }

func (s *Stub) IsAvailable(ctx context.Context) bool { return true }

func (s *Stub) SanitizeContext(raw sanitize.AnalysisContext) *sanitize.SanitizedContext {
	return s.sanitizer.Sanitize(raw)
}

// Analyze echoes the failure back as a single deterministic suggestion,
// or the canned batch when one is configured. Truncation is applied the
// same way the remote backends apply it so tests cover that path too.
func (s *Stub) Analyze(ctx context.Context, req *Request) (*Result, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}

	now := time.Now().UTC()
	provenance := Provenance{
		Provider:  s.Name(),
		Timestamp: now,
	}

	if s.Canned != nil {
		return &Result{Suggestions: s.Canned, Provenance: provenance}, nil
	}

	san := req.Sanitized.Sanitized
	stderr := truncate(san.Stderr, s.cfg.Safety.MaxContextLength)

	suggestion := &types.Suggestion{
		ID:          uuid.New().String(),
		Title:       fmt.Sprintf("Review the failure of %s", san.Command),
		Description: fmt.Sprintf("%s exited with code %d. First error output: %s", san.Command, san.ExitCode, firstLine(stderr)),
		Confidence:  0.5,
		Type:        types.SuggestionTip,
		Priority:    types.PriorityLow,
		Source:      s.Name(),
		CommandID:   req.CommandID,
		CreatedAt:   now,
	}
	return &Result{Suggestions: []*types.Suggestion{suggestion}, Provenance: provenance}, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
