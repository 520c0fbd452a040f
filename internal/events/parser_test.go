package events

import (
	"strings"
	"testing"
)

func TestParseLine(t *testing.T) {
	t.Run("ValidCommandStart", func(t *testing.T) {
		line := `{"id":"cmd-1","type":"command_start","timestamp":1700000000000,"session_id":"sess-1","shell":"zsh","command_id":"cmd-1","data":{"command":"grep","args":["foo","bar.txt"],"cwd":"/tmp"}}`
		event, err := ParseLine(line)
		if err != nil {
			t.Fatalf("Failed to parse valid line: %v", err)
		}
		if event.Type != EventTypeCommandStart {
			t.Errorf("Expected command_start, got %s", event.Type)
		}
		data, err := event.GetCommandStartData()
		if err != nil {
			t.Fatalf("Failed to read payload: %v", err)
		}
		if data.Command != "grep" {
			t.Errorf("Expected command 'grep', got %q", data.Command)
		}
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		line := `{"id":"evt-1","type":"mind_read","timestamp":1,"session_id":"sess-1"}`
		if _, err := ParseLine(line); err == nil {
			t.Error("Expected error for unknown event type")
		}
	})

	t.Run("GarbageRejected", func(t *testing.T) {
		if _, err := ParseLine("not json at all"); err == nil {
			t.Error("Expected error for non-JSON input")
		}
	})
}

func TestParseStreamSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"id":"cmd-1","type":"command_start","timestamp":1700000000000,"session_id":"s","shell":"bash","command_id":"cmd-1","data":{"command":"ls","args":[],"cwd":"/"}}`,
		`garbage line`,
		`{"id":"evt-2","type":"exit_status","timestamp":1700000000500,"session_id":"s","shell":"bash","command_id":"cmd-1","data":{"exit_code":0,"success":true}}`,
	}, "\n")

	var handled []*TerminalEvent
	var badLines int
	err := ParseStream(strings.NewReader(input),
		func(e *TerminalEvent) error {
			handled = append(handled, e)
			return nil
		},
		func(line string, err error) {
			badLines++
		})
	if err != nil {
		t.Fatalf("ParseStream failed: %v", err)
	}
	if len(handled) != 2 {
		t.Errorf("Expected 2 events handled, got %d", len(handled))
	}
	if badLines != 1 {
		t.Errorf("Expected 1 malformed line reported, got %d", badLines)
	}
}
