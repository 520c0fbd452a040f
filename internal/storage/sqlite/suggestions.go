package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/runebook/ambient/internal/types"
)

// SaveSuggestions stores a ranked batch of suggestions for a command,
// replacing any earlier batch for the same command. The batch is written
// in a single transaction so readers never observe a partial mix.
func (s *Store) SaveSuggestions(ctx context.Context, commandID string, suggestions []*types.Suggestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin suggestion transaction: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "DELETE FROM suggestions WHERE command_id = ?", commandID)
	if err != nil {
		return fmt.Errorf("%w: failed to supersede prior suggestions: %v", ErrStoreUnavailable, err)
	}

	query := `
		INSERT INTO suggestions (
			id, command_id, title, description, snippet, confidence,
			type, priority, source, created_at, dismissed, applied, batch_rank
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for rank, suggestion := range suggestions {
		if err := suggestion.Validate(); err != nil {
			return fmt.Errorf("refusing to store invalid suggestion: %w", err)
		}
		_, err = tx.ExecContext(ctx, query,
			suggestion.ID,
			commandID,
			suggestion.Title,
			suggestion.Description,
			suggestion.Snippet,
			suggestion.Confidence,
			suggestion.Type,
			suggestion.Priority,
			suggestion.Source,
			suggestion.CreatedAt,
			suggestion.Dismissed,
			suggestion.Applied,
			rank,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to store suggestion %s: %v",
				ErrStoreUnavailable, suggestion.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit suggestions: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetSuggestions returns the stored batch for a command in rank order.
func (s *Store) GetSuggestions(ctx context.Context, commandID string) ([]*types.Suggestion, error) {
	query := `
		SELECT id, command_id, title, description, snippet, confidence,
		       type, priority, source, created_at, dismissed, applied
		FROM suggestions
		WHERE command_id = ?
		ORDER BY batch_rank ASC
	`

	rows, err := s.db.QueryContext(ctx, query, commandID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query suggestions: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanSuggestions(rows)
}

// GetLatestSuggestions returns the most recently stored batch across all
// commands, in rank order, truncated to limit when limit > 0.
func (s *Store) GetLatestSuggestions(ctx context.Context, limit int) ([]*types.Suggestion, error) {
	query := `
		SELECT id, command_id, title, description, snippet, confidence,
		       type, priority, source, created_at, dismissed, applied
		FROM suggestions
		WHERE command_id = (
			SELECT command_id FROM suggestions
			ORDER BY created_at DESC
			LIMIT 1
		)
		ORDER BY batch_rank ASC
	`
	args := []interface{}{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query latest suggestions: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanSuggestions(rows)
}

// SetSuggestionDismissed marks a suggestion as dismissed or not.
func (s *Store) SetSuggestionDismissed(ctx context.Context, id string, dismissed bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE suggestions SET dismissed = ? WHERE id = ?", dismissed, id)
	if err != nil {
		return fmt.Errorf("%w: failed to update suggestion: %v", ErrStoreUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check suggestion update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("suggestion not found: %s", id)
	}
	return nil
}

// SetSuggestionApplied marks a suggestion as applied.
func (s *Store) SetSuggestionApplied(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE suggestions SET applied = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: failed to update suggestion: %v", ErrStoreUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check suggestion update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("suggestion not found: %s", id)
	}
	return nil
}

func scanSuggestions(rows *sql.Rows) ([]*types.Suggestion, error) {
	var result []*types.Suggestion

	for rows.Next() {
		var s types.Suggestion
		err := rows.Scan(
			&s.ID,
			&s.CommandID,
			&s.Title,
			&s.Description,
			&s.Snippet,
			&s.Confidence,
			&s.Type,
			&s.Priority,
			&s.Source,
			&s.CreatedAt,
			&s.Dismissed,
			&s.Applied,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		result = append(result, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestion rows: %w", err)
	}

	return result, nil
}
