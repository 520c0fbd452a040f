package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ParseLine parses a single NDJSON line emitted by a shell hook into a
// TerminalEvent. The type tag must be one of the closed event kinds and
// the event must pass structural validation; anything else is an error so
// malformed capture data never enters the store silently.
func ParseLine(line string) (*TerminalEvent, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("empty event line")
	}

	var event TerminalEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return nil, fmt.Errorf("failed to parse event line: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	return &event, nil
}

// ParseStream reads NDJSON events from r, invoking handle for each valid
// event in arrival order. Malformed lines are reported through onError and
// skipped; the stream keeps going. This matches the capture contract:
// observation must never interrupt the shell session being observed.
func ParseStream(r io.Reader, handle func(*TerminalEvent) error, onError func(line string, err error)) error {
	scanner := bufio.NewScanner(r)
	// Output chunks can be large; allow lines up to 1 MiB.
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		event, err := ParseLine(line)
		if err != nil {
			if onError != nil {
				onError(line, err)
			}
			continue
		}
		if err := handle(event); err != nil {
			if onError != nil {
				onError(line, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read event stream: %w", err)
	}
	return nil
}
