package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS group_runs (
		id TEXT PRIMARY KEY,
		durations TEXT NOT NULL,
		forbidden REAL NOT NULL,
		unit_ns INTEGER NOT NULL,
		results TEXT,
		cause TEXT,
		elapsed_ns INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_group_runs_created_at ON group_runs(created_at);

	CREATE TABLE IF NOT EXISTS group_operations (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		duration REAL NOT NULL,
		status INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES group_runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS weather_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		city TEXT NOT NULL,
		status TEXT NOT NULL,
		temperature_c REAL,
		humidity_pct INTEGER,
		description TEXT,
		error TEXT,
		fetched_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_weather_reports_city_fetched
		ON weather_reports(city, fetched_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
