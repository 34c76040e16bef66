package store

func (s *Store) migrate() error {
	return s.migrateV1()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS committed_entries (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		project TEXT NOT NULL,
		client TEXT NOT NULL,
		category TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		confidence REAL NOT NULL,
		est_source TEXT NOT NULL,
		billable INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		correction_keys TEXT NOT NULL DEFAULT '[]',
		committed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_committed_started ON committed_entries(started_at);

	CREATE TABLE IF NOT EXISTS pending_entries (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		project TEXT NOT NULL,
		client TEXT NOT NULL,
		category TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		confidence REAL NOT NULL,
		est_source TEXT NOT NULL,
		billable INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		correction_keys TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pending_created ON pending_entries(created_at);

	CREATE TABLE IF NOT EXISTS correction_profile (
		key TEXT PRIMARY KEY,
		multiplier REAL NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_checkpoints (
		kind TEXT PRIMARY KEY,
		synced_at INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}
