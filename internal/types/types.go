package types

import (
	"fmt"
	"strings"
	"time"
)

// Suggestion represents one ranked, safety-reviewed improvement suggestion
// produced by an analysis run. Suggestions are immutable once produced:
// ranking reorders them, it never mutates them.
type Suggestion struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Snippet     string         `json:"snippet,omitempty"` // actionable command or fix, if any
	Confidence  float64        `json:"confidence"`        // 0.0 to 1.0
	Type        SuggestionType `json:"type"`
	Priority    Priority       `json:"priority"`
	Source      string         `json:"source"` // "heuristic" or a provider name
	CommandID   string         `json:"command_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Dismissed   bool           `json:"dismissed,omitempty"`
	Applied     bool           `json:"applied,omitempty"`
}

// Validate checks if the suggestion has valid field values
func (s *Suggestion) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if s.Confidence < 0.0 || s.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", s.Confidence)
	}
	if !s.Type.IsValid() {
		return fmt.Errorf("invalid suggestion type: %s", s.Type)
	}
	if !s.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", s.Priority)
	}
	return nil
}

// SuggestionType categorizes what a suggestion proposes
type SuggestionType string

const (
	SuggestionCommand      SuggestionType = "command"      // a concrete command to run instead
	SuggestionOptimization SuggestionType = "optimization" // a faster or cleaner way
	SuggestionShortcut     SuggestionType = "shortcut"     // an alias or key binding
	SuggestionWarning      SuggestionType = "warning"      // something risky was observed
	SuggestionTip          SuggestionType = "tip"          // general guidance
)

// IsValid checks if the suggestion type value is valid
func (t SuggestionType) IsValid() bool {
	switch t {
	case SuggestionCommand, SuggestionOptimization, SuggestionShortcut, SuggestionWarning, SuggestionTip:
		return true
	}
	return false
}

// Priority represents how urgently a suggestion should surface
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Weight maps a priority onto a sortable integer (high > medium > low).
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// ErrorSummary is the narrowed, analysis-ready view of a single failed
// command: the minimal unit one heuristic rule or one provider call
// reasons over.
type ErrorSummary struct {
	Command   string            `json:"command"`
	Args      []string          `json:"args"`
	ExitCode  int               `json:"exit_code"`
	Stderr    string            `json:"stderr"`
	Stdout    string            `json:"stdout"`
	Cwd       string            `json:"cwd"`
	Env       map[string]string `json:"env,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// CommandLine reassembles the full command line for display.
func (e ErrorSummary) CommandLine() string {
	if len(e.Args) == 0 {
		return e.Command
	}
	return e.Command + " " + strings.Join(e.Args, " ")
}

// AgentState is the coarse pipeline state mirrored to the status surface.
type AgentState string

const (
	StateIdle        AgentState = "idle"
	StateAnalyzing   AgentState = "analyzing"
	StateIssuesFound AgentState = "issues_found"
)
