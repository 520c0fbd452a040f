package sqlite

// schema defines the ambient agent's storage layout. terminal_events is
// append-only; rows leave only through the retention sweep. suggestions
// holds the latest ranked batch per command, superseded wholesale by the
// next analysis run.
const schema = `
CREATE TABLE IF NOT EXISTS terminal_events (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	session_id TEXT NOT NULL,
	shell TEXT,
	pane_id TEXT,
	tab_id TEXT,
	command_id TEXT,
	data TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_terminal_events_session
	ON terminal_events(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_terminal_events_command
	ON terminal_events(command_id);
CREATE INDEX IF NOT EXISTS idx_terminal_events_type_time
	ON terminal_events(type, timestamp);

CREATE TABLE IF NOT EXISTS suggestions (
	id TEXT PRIMARY KEY,
	command_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	snippet TEXT,
	confidence REAL NOT NULL,
	type TEXT NOT NULL,
	priority TEXT NOT NULL,
	source TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	dismissed INTEGER NOT NULL DEFAULT 0,
	applied INTEGER NOT NULL DEFAULT 0,
	batch_rank INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suggestions_command
	ON suggestions(command_id);
CREATE INDEX IF NOT EXISTS idx_suggestions_created
	ON suggestions(created_at);
`
