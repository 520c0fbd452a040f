package types

import (
	"testing"
)

func TestSuggestionValidate(t *testing.T) {
	valid := Suggestion{
		Title:      "Check the file path",
		Confidence: 0.9,
		Type:       SuggestionCommand,
		Priority:   PriorityHigh,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid suggestion, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Suggestion)
	}{
		{"EmptyTitle", func(s *Suggestion) { s.Title = "  " }},
		{"ConfidenceTooHigh", func(s *Suggestion) { s.Confidence = 1.5 }},
		{"ConfidenceNegative", func(s *Suggestion) { s.Confidence = -0.1 }},
		{"BadType", func(s *Suggestion) { s.Type = "prophecy" }},
		{"BadPriority", func(s *Suggestion) { s.Priority = "urgent" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestPriorityWeight(t *testing.T) {
	if PriorityHigh.Weight() <= PriorityMedium.Weight() {
		t.Error("Expected high > medium")
	}
	if PriorityMedium.Weight() <= PriorityLow.Weight() {
		t.Error("Expected medium > low")
	}
}

func TestCommandLine(t *testing.T) {
	s := ErrorSummary{Command: "grep", Args: []string{"foo", "bar.txt"}}
	if got := s.CommandLine(); got != "grep foo bar.txt" {
		t.Errorf("Expected 'grep foo bar.txt', got %q", got)
	}
	bare := ErrorSummary{Command: "ls"}
	if got := bare.CommandLine(); got != "ls" {
		t.Errorf("Expected 'ls', got %q", got)
	}
}
