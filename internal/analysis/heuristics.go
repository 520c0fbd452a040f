// Package analysis turns captured command failures into ranked
// suggestions. Heuristic rules always run; a configured provider adds a
// second pass when it is available and allowed.
package analysis

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runebook/ambient/internal/types"
)

// Heuristic is one deterministic detection rule. Rules are independent:
// a rule that returns nothing, or panics, never affects the others.
type Heuristic interface {
	Name() string
	Detect(summary types.ErrorSummary) []*types.Suggestion
}

// DefaultHeuristics returns the built-in rule set in evaluation order.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		commandNotFoundRule{},
		missingFileRule{},
		permissionDeniedRule{},
		gitFailureRule{},
		interruptRule{},
	}
}

// runHeuristics evaluates every rule, isolating failures. A panicking
// rule is reported to stderr and skipped; its siblings still run.
func runHeuristics(rules []Heuristic, summary types.ErrorSummary) []*types.Suggestion {
	var all []*types.Suggestion
	for _, rule := range rules {
		all = append(all, runOneHeuristic(rule, summary)...)
	}
	return all
}

func runOneHeuristic(rule Heuristic, summary types.ErrorSummary) (result []*types.Suggestion) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Warning: heuristic %s panicked, skipping: %v\n", rule.Name(), r)
			result = nil
		}
	}()
	return rule.Detect(summary)
}

// newSuggestion fills the fields every heuristic suggestion shares.
func newSuggestion(summary types.ErrorSummary, title, description, snippet string,
	sType types.SuggestionType, priority types.Priority, confidence float64) *types.Suggestion {
	return &types.Suggestion{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Snippet:     snippet,
		Confidence:  confidence,
		Type:        sType,
		Priority:    priority,
		Source:      "heuristic",
		CreatedAt:   time.Now().UTC(),
	}
}

// commandNotFoundRule catches exit 127 and shell "command not found"
// diagnostics.
type commandNotFoundRule struct{}

func (commandNotFoundRule) Name() string { return "command_not_found" }

func (commandNotFoundRule) Detect(summary types.ErrorSummary) []*types.Suggestion {
	if summary.ExitCode != 127 && !strings.Contains(summary.Stderr, "command not found") {
		return nil
	}
	return []*types.Suggestion{newSuggestion(summary,
		fmt.Sprintf("%s is not installed or not on PATH", summary.Command),
		fmt.Sprintf("The shell could not find %q. Check the spelling, or install it and make sure its directory is on PATH.", summary.Command),
		fmt.Sprintf("command -v %s || echo not found", summary.Command),
		types.SuggestionCommand, types.PriorityHigh, 0.9)}
}

// missingFileRule catches ENOENT diagnostics from any tool.
type missingFileRule struct{}

func (missingFileRule) Name() string { return "missing_file" }

func (missingFileRule) Detect(summary types.ErrorSummary) []*types.Suggestion {
	if !strings.Contains(summary.Stderr, "No such file or directory") {
		return nil
	}

	target := extractMissingPath(summary.Stderr)
	title := "A referenced file or directory does not exist"
	description := "The command referenced a path that does not exist. Check the spelling and the current directory."
	snippet := "ls -la"
	if target != "" {
		title = fmt.Sprintf("%s does not exist", target)
		description = fmt.Sprintf("The command referenced %q, which does not exist in %s. Check the spelling, or create it first.", target, summary.Cwd)
		snippet = fmt.Sprintf("ls -la %s", target)
	}

	return []*types.Suggestion{newSuggestion(summary,
		title, description, snippet,
		types.SuggestionCommand, types.PriorityMedium, 0.8)}
}

// extractMissingPath pulls the offending path out of the common
// "tool: path: No such file or directory" shape.
func extractMissingPath(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		idx := strings.Index(line, ": No such file or directory")
		if idx < 0 {
			continue
		}
		head := line[:idx]
		if colon := strings.LastIndex(head, ": "); colon >= 0 {
			head = head[colon+2:]
		}
		head = strings.Trim(head, "'\"")
		if head != "" && !strings.ContainsAny(head, " \t") {
			return head
		}
	}
	return ""
}

// permissionDeniedRule catches EACCES diagnostics.
type permissionDeniedRule struct{}

func (permissionDeniedRule) Name() string { return "permission_denied" }

func (permissionDeniedRule) Detect(summary types.ErrorSummary) []*types.Suggestion {
	if !strings.Contains(summary.Stderr, "Permission denied") &&
		!strings.Contains(summary.Stderr, "permission denied") {
		return nil
	}
	return []*types.Suggestion{newSuggestion(summary,
		"Permission denied",
		"The command lacked permission for a file or resource. Check ownership and mode before reaching for sudo.",
		fmt.Sprintf("ls -la && sudo %s", summary.CommandLine()),
		types.SuggestionWarning, types.PriorityHigh, 0.85)}
}

// gitFailureRule knows the recurring git failure shapes.
type gitFailureRule struct{}

func (gitFailureRule) Name() string { return "git_failure" }

func (gitFailureRule) Detect(summary types.ErrorSummary) []*types.Suggestion {
	if summary.Command != "git" || summary.ExitCode == 0 {
		return nil
	}

	stderr := summary.Stderr
	switch {
	case strings.Contains(stderr, "non-fast-forward") || strings.Contains(stderr, "fetch first"):
		return []*types.Suggestion{newSuggestion(summary,
			"Push rejected: remote has newer commits",
			"The remote branch moved ahead of your local branch. Pull with rebase, resolve any conflicts, then push again.",
			"git pull --rebase && git push",
			types.SuggestionCommand, types.PriorityHigh, 0.9)}
	case strings.Contains(stderr, "not a git repository"):
		return []*types.Suggestion{newSuggestion(summary,
			"Not inside a git repository",
			fmt.Sprintf("%s is not inside a git work tree. Change into the repository or initialize one.", summary.Cwd),
			"git rev-parse --show-toplevel",
			types.SuggestionCommand, types.PriorityMedium, 0.85)}
	case strings.Contains(stderr, "no upstream branch"):
		return []*types.Suggestion{newSuggestion(summary,
			"Branch has no upstream",
			"The current branch is not tracking a remote branch yet.",
			"git push --set-upstream origin HEAD",
			types.SuggestionCommand, types.PriorityMedium, 0.9)}
	case strings.Contains(stderr, "Your local changes to the following files would be overwritten"):
		return []*types.Suggestion{newSuggestion(summary,
			"Local changes block the checkout",
			"Uncommitted changes would be overwritten. Stash or commit them first.",
			"git stash && git checkout -",
			types.SuggestionCommand, types.PriorityMedium, 0.8)}
	}
	return nil
}

// interruptRule notes commands killed by Ctrl-C so repeated interrupts
// of long-running commands surface as a pattern.
type interruptRule struct{}

func (interruptRule) Name() string { return "interrupt" }

func (interruptRule) Detect(summary types.ErrorSummary) []*types.Suggestion {
	if summary.ExitCode != 130 {
		return nil
	}
	return []*types.Suggestion{newSuggestion(summary,
		fmt.Sprintf("%s was interrupted", summary.Command),
		"The command exited on SIGINT. If it regularly runs too long, consider running it in the background or with a timeout.",
		fmt.Sprintf("timeout 60 %s", summary.CommandLine()),
		types.SuggestionTip, types.PriorityLow, 0.6)}
}
