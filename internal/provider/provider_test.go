package provider

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/runebook/ambient/internal/sanitize"
	"github.com/runebook/ambient/internal/types"
)

func TestFactory(t *testing.T) {
	t.Run("nil config yields no provider", func(t *testing.T) {
		p, err := New(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			t.Errorf("expected no provider, got %T", p)
		}
	})

	t.Run("disabled config yields no provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Kind = KindStub
		p, err := New(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			t.Errorf("expected no provider, got %T", p)
		}
	})

	t.Run("unrecognized kind yields no provider and no error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Kind = Kind("grok")
		p, err := New(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p != nil {
			t.Errorf("expected no provider, got %T", p)
		}
	})

	t.Run("stub kind yields the stub", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Kind = KindStub
		p, err := New(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := p.(*Stub); !ok {
			t.Errorf("expected *Stub, got %T", p)
		}
	})

	t.Run("misconfigured recognized kind is an error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.Kind = KindOllama
		cfg.Endpoint = ""
		if _, err := New(cfg); err == nil {
			t.Error("expected error for ollama without endpoint")
		}
	})
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 100)

	t.Run("caps long content", func(t *testing.T) {
		got := truncate(long, 10)
		if !strings.HasPrefix(got, strings.Repeat("a", 10)) {
			t.Errorf("expected prefix preserved, got %q", got)
		}
		if !strings.HasSuffix(got, "(truncated)") {
			t.Errorf("expected truncation marker, got %q", got)
		}
	})

	t.Run("short content untouched", func(t *testing.T) {
		if got := truncate("short", 10); got != "short" {
			t.Errorf("expected unchanged, got %q", got)
		}
	})

	t.Run("zero max means unlimited", func(t *testing.T) {
		if got := truncate(long, 0); got != long {
			t.Error("expected unchanged for zero max")
		}
	})
}

func TestBuildPromptAppliesTruncation(t *testing.T) {
	// Repeated short words survive sanitization untouched; a single
	// long opaque run would be redacted before truncation can apply.
	stderr := strings.Repeat("undefined reference to main ", 10)
	san := sanitize.New().Sanitize(sanitize.AnalysisContext{
		Command:  "make",
		ExitCode: 2,
		Stderr:   stderr,
	})
	if san.Sanitized.Stderr != stderr {
		t.Fatalf("fixture was altered by sanitization: %q", san.Sanitized.Stderr)
	}
	req := &Request{
		CommandID: "cmd-1",
		Sanitized: san,
	}

	prompt := buildPrompt(req, 50)
	if strings.Contains(prompt, stderr) {
		t.Error("expected stderr to be truncated in prompt")
	}
	if !strings.Contains(prompt, "(truncated)") {
		t.Error("expected truncation marker in prompt")
	}
	if !strings.Contains(prompt, "Exit code: 2") {
		t.Error("expected exit code in prompt")
	}
}

func TestBuildPromptIncludesSessionContext(t *testing.T) {
	san := sanitize.New().Sanitize(sanitize.AnalysisContext{
		Command:       "npm",
		Args:          []string{"test"},
		ExitCode:      1,
		PriorCommands: []string{"git status", "npm install"},
	})
	req := &Request{
		CommandID:    "cmd-1",
		Sanitized:    san,
		RepoMetadata: map[string]string{"git_branch": "main"},
		PriorSuggestions: []*types.Suggestion{
			{Title: "Run npm install first"},
		},
	}

	prompt := buildPrompt(req, 0)
	if !strings.Contains(prompt, "git status") {
		t.Error("expected session history in prompt")
	}
	if !strings.Contains(prompt, "git_branch: main") {
		t.Error("expected repository metadata in prompt")
	}
	if !strings.Contains(prompt, "Run npm install first") {
		t.Error("expected prior suggestions in prompt")
	}
}

func TestParseSuggestions(t *testing.T) {
	now := time.Now().UTC()

	t.Run("plain array", func(t *testing.T) {
		got, err := parseSuggestions(
			`[{"title": "Use make -j", "type": "optimization", "priority": "medium", "confidence": 0.7}]`,
			"stub", "cmd-1", now)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 suggestion, got %d", len(got))
		}
		s := got[0]
		if s.Title != "Use make -j" || s.Type != types.SuggestionOptimization || s.Priority != types.PriorityMedium {
			t.Errorf("unexpected suggestion: %+v", s)
		}
		if s.Source != "stub" || s.CommandID != "cmd-1" {
			t.Errorf("provenance fields not set: %+v", s)
		}
	})

	t.Run("code fenced", func(t *testing.T) {
		text := "Here you go:\n```json\n[{\"title\": \"Check the path\", \"type\": \"tip\", \"priority\": \"low\", \"confidence\": 0.5}]\n```\nHope that helps."
		got, err := parseSuggestions(text, "ollama", "cmd-1", now)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Check the path" {
			t.Errorf("unexpected result: %+v", got)
		}
	})

	t.Run("trailing comma", func(t *testing.T) {
		text := `[{"title": "Retry", "type": "command", "priority": "high", "confidence": 0.9,}]`
		got, err := parseSuggestions(text, "mcp", "cmd-1", now)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 suggestion, got %d", len(got))
		}
	})

	t.Run("invalid enum values are salvaged", func(t *testing.T) {
		text := `[{"title": "Something", "type": "banana", "priority": "urgent", "confidence": 3.0}]`
		got, err := parseSuggestions(text, "stub", "cmd-1", now)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		s := got[0]
		if s.Type != types.SuggestionTip || s.Priority != types.PriorityLow || s.Confidence != 1.0 {
			t.Errorf("expected salvaged values, got %+v", s)
		}
	})

	t.Run("entries without titles are dropped", func(t *testing.T) {
		text := `[{"title": "", "type": "tip", "priority": "low"}, {"title": "Real one", "type": "tip", "priority": "low", "confidence": 0.4}]`
		got, err := parseSuggestions(text, "stub", "cmd-1", now)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(got) != 1 || got[0].Title != "Real one" {
			t.Errorf("unexpected result: %+v", got)
		}
	})

	t.Run("no JSON at all is an error", func(t *testing.T) {
		if _, err := parseSuggestions("I cannot help with that.", "stub", "cmd-1", now); err == nil {
			t.Error("expected parse error for prose-only response")
		}
	})
}

func TestStubProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	stub := NewStub(cfg)
	ctx := context.Background()

	if !stub.IsAvailable(ctx) {
		t.Error("stub must always be available")
	}

	san := stub.SanitizeContext(sanitize.AnalysisContext{
		Command:  "git",
		Args:     []string{"push"},
		ExitCode: 1,
		Stderr:   "fatal: could not read from remote repository",
	})
	req := &Request{CommandID: "cmd-9", Sanitized: san}

	t.Run("deterministic output", func(t *testing.T) {
		first, err := stub.Analyze(ctx, req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		second, err := stub.Analyze(ctx, req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(first.Suggestions) != 1 || len(second.Suggestions) != 1 {
			t.Fatalf("expected 1 suggestion each, got %d and %d", len(first.Suggestions), len(second.Suggestions))
		}
		if first.Suggestions[0].Title != second.Suggestions[0].Title {
			t.Error("stub output must be deterministic")
		}
		if stub.Calls != 2 {
			t.Errorf("expected 2 recorded calls, got %d", stub.Calls)
		}
	})

	t.Run("provenance names the stub", func(t *testing.T) {
		result, err := stub.Analyze(ctx, req)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if result.Provenance.Provider != "stub" {
			t.Errorf("expected stub provenance, got %q", result.Provenance.Provider)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Enabled {
			t.Error("default config must be disabled")
		}
		if !cfg.Safety.RequireReview {
			t.Error("default config must require review")
		}
	})

	t.Run("env overrides apply", func(t *testing.T) {
		t.Setenv("AMBIENT_PROVIDER", "ollama")
		t.Setenv("AMBIENT_PROVIDER_ENABLED", "true")
		t.Setenv("AMBIENT_PROVIDER_MODEL", "llama3.2")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Kind != KindOllama || !cfg.Enabled || cfg.Model != "llama3.2" {
			t.Errorf("env overrides not applied: %+v", cfg)
		}
	})

	t.Run("validation rejects bad values", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Timeout = 0
		if err := cfg.Validate(); !errors.Is(err, ErrConfigInvalid) {
			t.Errorf("expected ErrConfigInvalid for zero timeout, got %v", err)
		}

		cfg = DefaultConfig()
		cfg.Safety.CacheEnabled = true
		cfg.Safety.CacheTTL = 0
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for zero cache TTL with caching on")
		}
	})
}
