package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/runebook/ambient/internal/events"
)

// SaveEvent appends one terminal event. Writes within a session are
// serialized to preserve per-command chunk ordering; the write is durable
// before the call returns.
func (s *Store) SaveEvent(ctx context.Context, event *events.TerminalEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("refusing to store invalid event: %w", err)
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	lock := s.sessionLock(event.SessionID)
	lock.Lock()
	defer lock.Unlock()

	query := `
		INSERT INTO terminal_events (
			id, type, timestamp, session_id, shell, pane_id, tab_id, command_id, data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.Timestamp,
		event.SessionID,
		event.Shell,
		event.PaneID,
		event.TabID,
		event.CommandID,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to store event (type=%s, session=%s): %v",
			ErrStoreUnavailable, event.Type, event.SessionID, err)
	}

	return nil
}

// GetEvents retrieves events matching the given filter, newest first.
func (s *Store) GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.TerminalEvent, error) {
	query := `
		SELECT id, type, timestamp, session_id, shell, pane_id, tab_id, command_id, data
		FROM terminal_events
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, filter.SessionID)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UnixMilli())
	}

	query += " ORDER BY timestamp DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// GetEventsByCommand returns the complete record for one command: the
// command_start, its output chunks in chunk-index order, then the
// command_end and exit_status. Chunks that arrived out of order are
// re-sorted on chunkIndex, never resequenced past gaps.
func (s *Store) GetEventsByCommand(ctx context.Context, commandID string) ([]*events.TerminalEvent, error) {
	query := `
		SELECT id, type, timestamp, session_id, shell, pane_id, tab_id, command_id, data
		FROM terminal_events
		WHERE command_id = ?
		ORDER BY timestamp ASC, id
	`

	rows, err := s.db.QueryContext(ctx, query, commandID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events by command: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	evts, err := s.scanEvents(rows)
	if err != nil {
		return nil, err
	}

	sortCommandRecord(evts)
	return evts, nil
}

// GetEventsBySession retrieves a session's events in capture order,
// truncated to limit when limit > 0.
func (s *Store) GetEventsBySession(ctx context.Context, sessionID string, limit int) ([]*events.TerminalEvent, error) {
	query := `
		SELECT id, type, timestamp, session_id, shell, pane_id, tab_id, command_id, data
		FROM terminal_events
		WHERE session_id = ?
		ORDER BY timestamp ASC, id
	`
	args := []interface{}{sessionID}

	if limit > 0 {
		// Keep the most recent events while preserving ascending order.
		query = `
			SELECT * FROM (
				SELECT id, type, timestamp, session_id, shell, pane_id, tab_id, command_id, data
				FROM terminal_events
				WHERE session_id = ?
				ORDER BY timestamp DESC, id
				LIMIT ?
			) ORDER BY timestamp ASC, id
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events by session: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ClearEvents deletes events older than the cutoff, or every event when
// the cutoff is the zero time. Returns the number of rows deleted.
func (s *Store) ClearEvents(ctx context.Context, olderThan time.Time) (int, error) {
	var result sql.Result
	var err error

	if olderThan.IsZero() {
		result, err = s.db.ExecContext(ctx, "DELETE FROM terminal_events")
	} else {
		result, err = s.db.ExecContext(ctx,
			"DELETE FROM terminal_events WHERE timestamp < ?", olderThan.UnixMilli())
	}
	if err != nil {
		return 0, fmt.Errorf("%w: failed to clear events: %v", ErrStoreUnavailable, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared events: %w", err)
	}
	return int(deleted), nil
}

// TrimEvents deletes the oldest events beyond max, keeping the event log
// bounded. Returns the number of rows deleted.
func (s *Store) TrimEvents(ctx context.Context, max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM terminal_events
		WHERE id IN (
			SELECT id FROM terminal_events
			ORDER BY timestamp DESC, id
			LIMIT -1 OFFSET ?
		)
	`, max)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to trim events: %v", ErrStoreUnavailable, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count trimmed events: %w", err)
	}
	return int(deleted), nil
}

// Stats holds aggregate counts over the stored events and suggestions.
type Stats struct {
	TotalEvents  int                      `json:"total_events"`
	EventsByType map[events.EventType]int `json:"events_by_type"`
	SessionCount int                      `json:"session_count"`
	Suggestions  int                      `json:"suggestions"`
}

// GetStats returns aggregate counts for diagnostics and the status surface.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{EventsByType: make(map[events.EventType]int)}

	rows, err := s.db.QueryContext(ctx,
		"SELECT type, COUNT(*) FROM terminal_events GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query event counts: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventType events.EventType
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		stats.EventsByType[eventType] = count
		stats.TotalEvents += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event counts: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT session_id) FROM terminal_events").Scan(&stats.SessionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM suggestions").Scan(&stats.Suggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to count suggestions: %w", err)
	}

	return stats, nil
}

// scanEvents is a helper function to scan rows into TerminalEvent structs.
func (s *Store) scanEvents(rows *sql.Rows) ([]*events.TerminalEvent, error) {
	var result []*events.TerminalEvent

	for rows.Next() {
		var event events.TerminalEvent
		var dataJSON string

		err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.Timestamp,
			&event.SessionID,
			&event.Shell,
			&event.PaneID,
			&event.TabID,
			&event.CommandID,
			&dataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event.Data = make(map[string]interface{})
		if dataJSON != "" && dataJSON != "{}" {
			if err := json.Unmarshal([]byte(dataJSON), &event.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}

		result = append(result, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return result, nil
}

// sortCommandRecord orders one command's events for reconstruction:
// command_start first, then stdout chunks by index, stderr chunks by
// index, then command_end and exit_status.
func sortCommandRecord(evts []*events.TerminalEvent) {
	phase := func(e *events.TerminalEvent) int {
		switch e.Type {
		case events.EventTypeCommandStart:
			return 0
		case events.EventTypeStdoutChunk:
			return 1
		case events.EventTypeStderrChunk:
			return 2
		case events.EventTypeCommandEnd:
			return 3
		case events.EventTypeExitStatus:
			return 4
		}
		return 5
	}
	chunkIndex := func(e *events.TerminalEvent) int {
		data, err := e.GetOutputChunkData()
		if err != nil {
			return 0
		}
		return data.ChunkIndex
	}
	sort.SliceStable(evts, func(i, j int) bool {
		pi, pj := phase(evts[i]), phase(evts[j])
		if pi != pj {
			return pi < pj
		}
		if pi == 1 || pi == 2 {
			return chunkIndex(evts[i]) < chunkIndex(evts[j])
		}
		return false
	})
}
