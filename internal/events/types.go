package events

import (
	"fmt"
	"time"
)

// EventType represents the kind of terminal observation an event carries.
type EventType string

const (
	// EventTypeCommandStart indicates a shell command began executing
	EventTypeCommandStart EventType = "command_start"
	// EventTypeCommandEnd indicates a shell command finished executing
	EventTypeCommandEnd EventType = "command_end"
	// EventTypeStdoutChunk indicates a chunk of stdout was captured
	EventTypeStdoutChunk EventType = "stdout_chunk"
	// EventTypeStderrChunk indicates a chunk of stderr was captured
	EventTypeStderrChunk EventType = "stderr_chunk"
	// EventTypeExitStatus indicates the exit status of a command was observed
	EventTypeExitStatus EventType = "exit_status"
	// EventTypeCwdChange indicates the working directory changed
	EventTypeCwdChange EventType = "cwd_change"
	// EventTypeEnvChange indicates the environment changed
	EventTypeEnvChange EventType = "env_change"
	// EventTypeSessionStart indicates a terminal session began
	EventTypeSessionStart EventType = "session_start"
	// EventTypeSessionEnd indicates a terminal session ended
	EventTypeSessionEnd EventType = "session_end"
)

// Stream identifies which output channel a chunk belongs to.
type Stream string

const (
	// StreamStdout is the standard output channel
	StreamStdout Stream = "stdout"
	// StreamStderr is the standard error channel
	StreamStderr Stream = "stderr"
)

// validEventTypes is the closed set of event kinds. Dispatch is always on
// the type tag; unknown tags are rejected at parse time.
var validEventTypes = map[EventType]bool{
	EventTypeCommandStart: true,
	EventTypeCommandEnd:   true,
	EventTypeStdoutChunk:  true,
	EventTypeStderrChunk:  true,
	EventTypeExitStatus:   true,
	EventTypeCwdChange:    true,
	EventTypeEnvChange:    true,
	EventTypeSessionStart: true,
	EventTypeSessionEnd:   true,
}

// IsValidEventType reports whether t is one of the closed event kinds.
func IsValidEventType(t EventType) bool {
	return validEventTypes[t]
}

// TerminalEvent represents one observation from a terminal session.
// Events are append-only: they are created at capture time and never
// mutated afterwards. Timestamp is a millisecond epoch so ordering
// survives JSON round-trips without timezone ambiguity.
type TerminalEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred (milliseconds since Unix epoch)
	Timestamp int64 `json:"timestamp"`
	// SessionID is the terminal session this event belongs to
	SessionID string `json:"session_id"`
	// Shell is the shell kind producing the event (bash, zsh, fish, ...)
	Shell string `json:"shell"`
	// PaneID is the multiplexer pane, if any
	PaneID string `json:"pane_id,omitempty"`
	// TabID is the multiplexer tab, if any
	TabID string `json:"tab_id,omitempty"`
	// CommandID links this event to its originating command_start event.
	// Empty only for session-level events.
	CommandID string `json:"command_id,omitempty"`
	// Data contains structured, type-specific payload (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// CommandStartData is the payload for command_start events. The event's
// own ID doubles as the command id that all later events reference.
type CommandStartData struct {
	// Command is the normalized command name (e.g. "git", not "/usr/bin/git")
	Command string `json:"command"`
	// Args are the command arguments
	Args []string `json:"args"`
	// Cwd is the working directory the command ran in
	Cwd string `json:"cwd"`
	// Env is a sanitized snapshot of the environment
	Env map[string]string `json:"env,omitempty"`
	// PID is the process id, if known
	PID int `json:"pid,omitempty"`
}

// CommandEndData is the payload for command_end events.
type CommandEndData struct {
	// DurationMs is how long the command ran, in milliseconds
	DurationMs int64 `json:"duration_ms"`
}

// OutputChunkData is the payload for stdout_chunk and stderr_chunk events.
type OutputChunkData struct {
	// Chunk is the raw captured text
	Chunk string `json:"chunk"`
	// ChunkIndex is strictly increasing per (command, stream) pair.
	// Gaps indicate lost data and are reported, never resequenced.
	ChunkIndex int `json:"chunk_index"`
}

// ExitStatusData is the payload for exit_status events.
type ExitStatusData struct {
	// ExitCode is the command's exit code
	ExitCode int `json:"exit_code"`
	// Success is true when the exit code was zero
	Success bool `json:"success"`
}

// CwdChangeData is the payload for cwd_change events.
type CwdChangeData struct {
	// Cwd is the new working directory
	Cwd string `json:"cwd"`
	// Previous is the prior working directory, if known
	Previous string `json:"previous,omitempty"`
}

// EnvChangeData is the payload for env_change events.
type EnvChangeData struct {
	// Env is the sanitized environment after the change
	Env map[string]string `json:"env"`
	// Changed lists the variable names that changed
	Changed []string `json:"changed,omitempty"`
}

// SessionStartData is the payload for session_start events.
type SessionStartData struct {
	// Shell is the shell kind (bash, zsh, fish, nushell, ...)
	Shell string `json:"shell"`
	// Cwd is the initial working directory
	Cwd string `json:"cwd"`
	// Hostname is the machine hostname, if known
	Hostname string `json:"hostname,omitempty"`
	// User is the user running the session, if known
	User string `json:"user,omitempty"`
}

// SessionEndData is the payload for session_end events.
type SessionEndData struct {
	// DurationMs is the session lifetime in milliseconds
	DurationMs int64 `json:"duration_ms"`
}

// Time converts the millisecond epoch timestamp to a time.Time.
func (e *TerminalEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// IsSessionLevel reports whether this event kind is scoped to the session
// rather than to a single command.
func (e *TerminalEvent) IsSessionLevel() bool {
	switch e.Type {
	case EventTypeSessionStart, EventTypeSessionEnd, EventTypeCwdChange, EventTypeEnvChange:
		return true
	}
	return false
}

// Validate checks the structural invariants every event must satisfy:
// a known type tag, a session id, and for command-scoped events a
// reference to the originating command_start id.
func (e *TerminalEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event has no id")
	}
	if !IsValidEventType(e.Type) {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.SessionID == "" {
		return fmt.Errorf("event %s (%s) has no session id", e.ID, e.Type)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("event %s (%s) has no timestamp", e.ID, e.Type)
	}

	switch e.Type {
	case EventTypeCommandStart:
		// The command_start event IS the command; it references itself.
		if e.CommandID != "" && e.CommandID != e.ID {
			return fmt.Errorf("command_start %s references foreign command %s", e.ID, e.CommandID)
		}
	case EventTypeCommandEnd, EventTypeStdoutChunk, EventTypeStderrChunk, EventTypeExitStatus:
		if e.CommandID == "" {
			return fmt.Errorf("event %s (%s) missing command reference", e.ID, e.Type)
		}
	}

	return nil
}

// StreamForType maps a chunk event type to its output stream.
// Returns false for non-chunk event types.
func StreamForType(t EventType) (Stream, bool) {
	switch t {
	case EventTypeStdoutChunk:
		return StreamStdout, true
	case EventTypeStderrChunk:
		return StreamStderr, true
	}
	return "", false
}
