// Package statusfile maintains the on-disk status surface other
// programs (prompt segments, editors, status bars) poll. Files are
// replaced atomically: a reader sees either the previous state or the
// next one, never a torn write.
package statusfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/runebook/ambient/internal/types"
)

const (
	StatusFileName      = "agent-status.json"
	SuggestionsFileName = "suggestions.json"
)

// Status is the shape of agent-status.json.
type Status struct {
	Status            types.AgentState `json:"status"`
	SuggestionCount   int              `json:"suggestionCount"`
	HighPriorityCount int              `json:"highPriorityCount"`
}

// suggestionsFile is the shape of suggestions.json.
type suggestionsFile struct {
	Suggestions []*types.Suggestion `json:"suggestions"`
}

// Writer publishes pipeline state into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create status directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Publish writes both surface files for the given state. A nil or empty
// suggestion list publishes zero counts and an empty array, so
// consumers can always parse both files.
func (w *Writer) Publish(state types.AgentState, suggestions []*types.Suggestion) error {
	if suggestions == nil {
		suggestions = []*types.Suggestion{}
	}

	if err := writeJSONAtomic(filepath.Join(w.dir, SuggestionsFileName), suggestionsFile{Suggestions: suggestions}); err != nil {
		return err
	}
	return w.writeStatus(state, suggestions)
}

// PublishState updates agent-status.json alone, leaving the previous
// suggestion batch on disk for readers while an analysis runs. Counts
// reflect the batch still published.
func (w *Writer) PublishState(state types.AgentState) error {
	suggestions, err := ReadSuggestions(w.dir)
	if err != nil {
		suggestions = nil
	}
	return w.writeStatus(state, suggestions)
}

func (w *Writer) writeStatus(state types.AgentState, suggestions []*types.Suggestion) error {
	high := 0
	for _, s := range suggestions {
		if s.Priority == types.PriorityHigh {
			high++
		}
	}

	status := Status{
		Status:            state,
		SuggestionCount:   len(suggestions),
		HighPriorityCount: high,
	}
	return writeJSONAtomic(filepath.Join(w.dir, StatusFileName), status)
}

// Reset publishes the idle state with zero counts.
func (w *Writer) Reset() error {
	return w.Publish(types.StateIdle, nil)
}

// ReadStatus loads agent-status.json from dir. A missing file reads as
// idle with zero counts: consumers never need a first-run special case.
func ReadStatus(dir string) (*Status, error) {
	data, err := os.ReadFile(filepath.Join(dir, StatusFileName))
	if os.IsNotExist(err) {
		return &Status{Status: types.StateIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("invalid status file: %w", err)
	}
	return &status, nil
}

// ReadSuggestions loads suggestions.json from dir. A missing file reads
// as an empty list.
func ReadSuggestions(dir string) ([]*types.Suggestion, error) {
	data, err := os.ReadFile(filepath.Join(dir, SuggestionsFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestions file: %w", err)
	}

	var file suggestionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid suggestions file: %w", err)
	}
	return file.Suggestions, nil
}

// writeJSONAtomic writes v to path via a temp file in the same
// directory followed by a rename.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
