package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS programming (
	id             TEXT PRIMARY KEY,
	scheduled_date TEXT NOT NULL DEFAULT '',
	scheduled_time TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'UNASSIGNED',
	service        TEXT NOT NULL DEFAULT '',
	reference      TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_programming_status ON programming(status);
CREATE INDEX IF NOT EXISTS idx_programming_date ON programming(scheduled_date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
