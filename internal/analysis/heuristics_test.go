package analysis

import (
	"testing"

	"github.com/runebook/ambient/internal/types"
)

func TestBuiltinHeuristics(t *testing.T) {
	tests := []struct {
		name         string
		summary      types.ErrorSummary
		wantAny      bool
		wantPriority types.Priority
	}{
		{
			name: "command not found by exit code",
			summary: types.ErrorSummary{
				Command:  "gti",
				ExitCode: 127,
				Stderr:   "zsh: command not found: gti",
			},
			wantAny:      true,
			wantPriority: types.PriorityHigh,
		},
		{
			name: "missing file",
			summary: types.ErrorSummary{
				Command:  "grep",
				Args:     []string{"foo", "bar.txt"},
				ExitCode: 2,
				Cwd:      "/tmp",
				Stderr:   "grep: bar.txt: No such file or directory\n",
			},
			wantAny:      true,
			wantPriority: types.PriorityMedium,
		},
		{
			name: "permission denied",
			summary: types.ErrorSummary{
				Command:  "cat",
				Args:     []string{"/etc/shadow"},
				ExitCode: 1,
				Stderr:   "cat: /etc/shadow: Permission denied\n",
			},
			wantAny:      true,
			wantPriority: types.PriorityHigh,
		},
		{
			name: "git non-fast-forward",
			summary: types.ErrorSummary{
				Command:  "git",
				Args:     []string{"push"},
				ExitCode: 1,
				Stderr:   "! [rejected] main -> main (non-fast-forward)\n",
			},
			wantAny:      true,
			wantPriority: types.PriorityHigh,
		},
		{
			name: "interrupted",
			summary: types.ErrorSummary{
				Command:  "sleep",
				Args:     []string{"1000"},
				ExitCode: 130,
			},
			wantAny:      true,
			wantPriority: types.PriorityLow,
		},
		{
			name: "clean failure matches nothing",
			summary: types.ErrorSummary{
				Command:  "false",
				ExitCode: 1,
			},
			wantAny: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runHeuristics(DefaultHeuristics(), tt.summary)
			if !tt.wantAny {
				if len(got) != 0 {
					t.Errorf("expected no suggestions, got %d", len(got))
				}
				return
			}
			if len(got) == 0 {
				t.Fatal("expected at least one suggestion")
			}
			found := false
			for _, s := range got {
				if s.Priority.Weight() >= tt.wantPriority.Weight() {
					found = true
				}
				if s.Source != "heuristic" {
					t.Errorf("expected heuristic source, got %q", s.Source)
				}
				if err := s.Validate(); err != nil {
					t.Errorf("invalid suggestion: %v", err)
				}
			}
			if !found {
				t.Errorf("expected a suggestion with priority >= %s", tt.wantPriority)
			}
		})
	}
}

func TestExtractMissingPath(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
	}{
		{"grep: bar.txt: No such file or directory", "bar.txt"},
		{"cat: /etc/nope: No such file or directory", "/etc/nope"},
		{"bash: cd: /nope: No such file or directory", "/nope"},
		{"completely unrelated output", ""},
	}
	for _, tt := range tests {
		if got := extractMissingPath(tt.stderr); got != tt.want {
			t.Errorf("extractMissingPath(%q) = %q, want %q", tt.stderr, got, tt.want)
		}
	}
}

type panickingRule struct{}

func (panickingRule) Name() string { return "panicking" }
func (panickingRule) Detect(types.ErrorSummary) []*types.Suggestion {
	panic("rule bug")
}

type constantRule struct{ title string }

func (r constantRule) Name() string { return "constant" }
func (r constantRule) Detect(s types.ErrorSummary) []*types.Suggestion {
	return []*types.Suggestion{newSuggestion(s, r.title, "", "", types.SuggestionTip, types.PriorityLow, 0.5)}
}

func TestHeuristicPanicIsolation(t *testing.T) {
	rules := []Heuristic{
		constantRule{title: "before"},
		panickingRule{},
		constantRule{title: "after"},
	}

	got := runHeuristics(rules, types.ErrorSummary{Command: "x", ExitCode: 1})
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions from surviving rules, got %d", len(got))
	}
	if got[0].Title != "before" || got[1].Title != "after" {
		t.Errorf("unexpected surviving suggestions: %s, %s", got[0].Title, got[1].Title)
	}
}
