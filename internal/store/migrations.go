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

CREATE TABLE IF NOT EXISTS habits (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	title        TEXT NOT NULL CHECK(length(trim(title)) > 0),
	image_url    TEXT NOT NULL DEFAULT '',
	glyph        TEXT NOT NULL DEFAULT '',
	color        TEXT NOT NULL DEFAULT '#FF9500',
	period_unit  TEXT NOT NULL DEFAULT 'day' CHECK(period_unit IN ('day', 'week', 'month')),
	period_value INTEGER NOT NULL DEFAULT 1 CHECK(period_value >= 1),
	target_count INTEGER NOT NULL DEFAULT 1 CHECK(target_count >= 1),
	active       INTEGER NOT NULL DEFAULT 1 CHECK(active IN (0, 1)),
	start_date   TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CHECK(image_url = '' OR glyph = '')
);

CREATE INDEX IF NOT EXISTS idx_habits_owner_active ON habits(owner_id, active, created_at);

CREATE TABLE IF NOT EXISTS habit_logs (
	habit_id   TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	log_date   TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (habit_id, log_date)
);

CREATE INDEX IF NOT EXISTS idx_habit_logs_owner_date ON habit_logs(owner_id, log_date);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
