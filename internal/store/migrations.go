package store

// migrations are applied in order; migration i brings the schema to
// version i+1. Append only.
var migrations = []string{
	`CREATE TABLE preferences (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}
