package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// Timestamps are stored as 64-bit epoch milliseconds.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS lists (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	category   TEXT NOT NULL DEFAULT 'Personal',
	remote_id  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS items (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id      INTEGER NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	description  TEXT NOT NULL DEFAULT '',
	is_completed INTEGER NOT NULL DEFAULT 0 CHECK(is_completed IN (0, 1)),
	created_at   INTEGER NOT NULL,
	position     INTEGER NOT NULL DEFAULT 0,
	remote_id    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_lists_owner_id ON lists(owner_id);
CREATE INDEX IF NOT EXISTS idx_items_list_id ON items(list_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_lists_owner_created
	ON lists(owner_id, created_at);

CREATE INDEX IF NOT EXISTS idx_items_list_position
	ON items(list_id, position);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
