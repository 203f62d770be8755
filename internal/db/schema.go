package db

// schemaSQL is the authoritative schema for the metadata projection.
// The append-only ledger lives outside sqlite (see adapters/filesystem);
// these tables are the queryable, overwritable view of latest state.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	parent_id TEXT,
	session_id TEXT,
	description TEXT NOT NULL,
	concepts TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'pending',
	output_path TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);

CREATE TABLE IF NOT EXISTS reports (
	task_id TEXT PRIMARY KEY REFERENCES tasks(id),
	status TEXT NOT NULL,
	template TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	artifacts TEXT NOT NULL DEFAULT '[]',
	issues TEXT NOT NULL DEFAULT '[]',
	next_steps TEXT NOT NULL DEFAULT '[]',
	generated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// GetSchemaSQL returns the authoritative schema. Tests must create
// their databases from this, never from hardcoded CREATE TABLE text.
func GetSchemaSQL() string {
	return schemaSQL
}
