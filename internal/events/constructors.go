package events

import (
	"time"

	"github.com/google/uuid"
)

// NewCommandStartEvent creates a new TerminalEvent for a command start with type-safe data.
// The returned event's ID is the command id that all subsequent chunk/end/exit
// events for this command must reference.
func NewCommandStartEvent(sessionID, shell string, data CommandStartData) (*TerminalEvent, error) {
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeCommandStart,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
	}
	event.CommandID = event.ID
	if err := event.SetCommandStartData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewCommandEndEvent creates a new TerminalEvent for a command completion with type-safe data.
func NewCommandEndEvent(sessionID, shell, commandID string, data CommandEndData) (*TerminalEvent, error) {
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeCommandEnd,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
		CommandID: commandID,
	}
	if err := event.SetCommandEndData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewOutputChunkEvent creates a new TerminalEvent for a stdout or stderr chunk
// with type-safe data. The stream selects the event type.
func NewOutputChunkEvent(sessionID, shell, commandID string, stream Stream, data OutputChunkData) (*TerminalEvent, error) {
	eventType := EventTypeStdoutChunk
	if stream == StreamStderr {
		eventType = EventTypeStderrChunk
	}
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
		CommandID: commandID,
	}
	if err := event.SetOutputChunkData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewExitStatusEvent creates a new TerminalEvent for an observed exit status with type-safe data.
func NewExitStatusEvent(sessionID, shell, commandID string, data ExitStatusData) (*TerminalEvent, error) {
	data.Success = data.ExitCode == 0
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeExitStatus,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
		CommandID: commandID,
	}
	if err := event.SetExitStatusData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewCwdChangeEvent creates a new TerminalEvent for a working directory change with type-safe data.
func NewCwdChangeEvent(sessionID, shell string, data CwdChangeData) (*TerminalEvent, error) {
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeCwdChange,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
	}
	if err := event.SetCwdChangeData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewEnvChangeEvent creates a new TerminalEvent for an environment change with type-safe data.
func NewEnvChangeEvent(sessionID, shell string, data EnvChangeData) (*TerminalEvent, error) {
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeEnvChange,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
	}
	if err := event.SetEnvChangeData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewSessionStartEvent creates a new TerminalEvent marking the beginning of a session.
// A fresh session id is generated and recorded on the event.
func NewSessionStartEvent(shell string, data SessionStartData) (*TerminalEvent, error) {
	data.Shell = shell
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeSessionStart,
		Timestamp: time.Now().UnixMilli(),
		SessionID: uuid.New().String(),
		Shell:     shell,
	}
	if err := event.SetSessionStartData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewSessionEndEvent creates a new TerminalEvent marking the end of a session.
func NewSessionEndEvent(sessionID, shell string, data SessionEndData) (*TerminalEvent, error) {
	event := &TerminalEvent{
		ID:        uuid.New().String(),
		Type:      EventTypeSessionEnd,
		Timestamp: time.Now().UnixMilli(),
		SessionID: sessionID,
		Shell:     shell,
	}
	if err := event.SetSessionEndData(data); err != nil {
		return nil, err
	}
	return event, nil
}
