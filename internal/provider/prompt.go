package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runebook/ambient/internal/types"
)

// buildPrompt renders one request into the instruction text shared by
// every remote backend. Only sanitized fields are used; truncation is
// applied here so all backends transmit the same bytes.
func buildPrompt(req *Request, maxContextLength int) string {
	san := req.Sanitized.Sanitized

	var b strings.Builder
	b.WriteString("You are a terminal assistant. A command just failed. ")
	b.WriteString("Suggest concrete fixes.\n\n")

	fmt.Fprintf(&b, "Command: %s\n", truncate(san.Command, maxContextLength))
	if len(san.Args) > 0 {
		fmt.Fprintf(&b, "Args: %s\n", truncate(strings.Join(san.Args, " "), maxContextLength))
	}
	fmt.Fprintf(&b, "Exit code: %d\n", san.ExitCode)
	fmt.Fprintf(&b, "Working directory: %s\n", truncate(san.Cwd, maxContextLength))

	if san.Stderr != "" {
		fmt.Fprintf(&b, "\nStderr:\n%s\n", truncate(san.Stderr, maxContextLength))
	}
	if san.Stdout != "" {
		fmt.Fprintf(&b, "\nStdout:\n%s\n", truncate(san.Stdout, maxContextLength))
	}
	if len(san.PriorCommands) > 0 {
		fmt.Fprintf(&b, "\nRecent commands:\n%s\n",
			truncate(strings.Join(san.PriorCommands, "\n"), maxContextLength))
	}
	for key, value := range req.RepoMetadata {
		fmt.Fprintf(&b, "%s: %s\n", key, truncate(value, maxContextLength))
	}
	if len(req.PriorSuggestions) > 0 {
		b.WriteString("\nAlready suggested, do not repeat:\n")
		for _, s := range req.PriorSuggestions {
			fmt.Fprintf(&b, "- %s\n", truncate(s.Title, maxContextLength))
		}
	}

	b.WriteString("\nRespond with a JSON array. Each element: ")
	b.WriteString(`{"title": string, "description": string, "snippet": string, `)
	b.WriteString(`"type": "command"|"optimization"|"shortcut"|"warning"|"tip", `)
	b.WriteString(`"priority": "low"|"medium"|"high", "confidence": number 0..1}`)
	b.WriteString("\nRespond with the JSON array only, no prose.\n")

	return b.String()
}

// wireSuggestion is the JSON shape remote backends respond with.
type wireSuggestion struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Snippet     string  `json:"snippet"`
	Type        string  `json:"type"`
	Priority    string  `json:"priority"`
	Confidence  float64 `json:"confidence"`
}

var (
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	jsonArrayRegex     = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
)

// parseSuggestions extracts suggestions from model output. Models wrap
// JSON in code fences or prose often enough that a strict parse alone
// throws away usable answers, so it falls back to fence stripping,
// array extraction, and trailing comma cleanup before giving up.
func parseSuggestions(text, source, commandID string, now time.Time) ([]*types.Suggestion, error) {
	candidates := []string{text}
	if m := codeFenceRegex.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if m := jsonArrayRegex.FindString(text); m != "" {
		candidates = append(candidates, m, trailingCommaRegex.ReplaceAllString(m, "$1"))
	}

	var wire []wireSuggestion
	var lastErr error
	parsed := false
	for _, candidate := range candidates {
		if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &wire); err == nil {
			parsed = true
			break
		} else {
			lastErr = err
		}
	}
	if !parsed {
		return nil, fmt.Errorf("failed to parse provider response: %w", lastErr)
	}

	var result []*types.Suggestion
	for _, w := range wire {
		s := &types.Suggestion{
			ID:          uuid.New().String(),
			Title:       strings.TrimSpace(w.Title),
			Description: strings.TrimSpace(w.Description),
			Snippet:     strings.TrimSpace(w.Snippet),
			Confidence:  w.Confidence,
			Type:        types.SuggestionType(w.Type),
			Priority:    types.Priority(w.Priority),
			Source:      source,
			CommandID:   commandID,
			CreatedAt:   now,
		}
		// Salvage mildly malformed entries rather than dropping the batch.
		if !s.Type.IsValid() {
			s.Type = types.SuggestionTip
		}
		if !s.Priority.IsValid() {
			s.Priority = types.PriorityLow
		}
		if s.Confidence < 0 {
			s.Confidence = 0
		}
		if s.Confidence > 1 {
			s.Confidence = 1
		}
		if s.Title == "" {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}
