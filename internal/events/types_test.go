package events

import (
	"testing"
)

func TestValidate(t *testing.T) {
	start, err := NewCommandStartEvent("sess-1", "zsh", CommandStartData{
		Command: "git",
		Args:    []string{"status"},
		Cwd:     "/tmp/repo",
	})
	if err != nil {
		t.Fatalf("Failed to create command_start: %v", err)
	}

	t.Run("CommandStartReferencesItself", func(t *testing.T) {
		if start.CommandID != start.ID {
			t.Errorf("Expected command_start to reference itself, got %q", start.CommandID)
		}
		if err := start.Validate(); err != nil {
			t.Errorf("Expected valid event, got %v", err)
		}
	})

	t.Run("ChunkWithoutCommandRejected", func(t *testing.T) {
		chunk, err := NewOutputChunkEvent("sess-1", "zsh", "", StreamStdout, OutputChunkData{
			Chunk:      "hello",
			ChunkIndex: 0,
		})
		if err != nil {
			t.Fatalf("Failed to create chunk: %v", err)
		}
		if err := chunk.Validate(); err == nil {
			t.Error("Expected validation failure for chunk with no command reference")
		}
	})

	t.Run("UnknownTypeRejected", func(t *testing.T) {
		bad := &TerminalEvent{
			ID:        "evt-1",
			Type:      EventType("telepathy"),
			Timestamp: 1,
			SessionID: "sess-1",
		}
		if err := bad.Validate(); err == nil {
			t.Error("Expected validation failure for unknown event type")
		}
	})

	t.Run("MissingSessionRejected", func(t *testing.T) {
		bad := &TerminalEvent{
			ID:        "evt-2",
			Type:      EventTypeSessionStart,
			Timestamp: 1,
		}
		if err := bad.Validate(); err == nil {
			t.Error("Expected validation failure for event with no session id")
		}
	})
}

func TestPayloadRoundTrip(t *testing.T) {
	exit, err := NewExitStatusEvent("sess-1", "bash", "cmd-1", ExitStatusData{ExitCode: 2})
	if err != nil {
		t.Fatalf("Failed to create exit_status: %v", err)
	}

	data, err := exit.GetExitStatusData()
	if err != nil {
		t.Fatalf("Failed to read exit data: %v", err)
	}
	if data.ExitCode != 2 {
		t.Errorf("Expected exit code 2, got %d", data.ExitCode)
	}
	if data.Success {
		t.Error("Expected Success=false for nonzero exit code")
	}
}

func TestStreamForType(t *testing.T) {
	if s, ok := StreamForType(EventTypeStderrChunk); !ok || s != StreamStderr {
		t.Errorf("Expected stderr stream, got %q ok=%v", s, ok)
	}
	if _, ok := StreamForType(EventTypeCommandEnd); ok {
		t.Error("Expected no stream for command_end")
	}
}
