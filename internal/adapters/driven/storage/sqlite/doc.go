// Package sqlite stores the installer's event history in SQLite through the
// pure Go modernc.org/sqlite driver. It implements driven.HistoryStore.
//
// The file lives at <config_dir>/data/history.db and is opened in WAL mode
// with a busy timeout, so `agent-skills serve` and a concurrent CLI command
// can both append. Schema steps come from the migrations package and are
// recorded in schema_migrations as they are applied.
//
// Timestamps are stored as Unix nanoseconds; events recorded within the same
// nanosecond keep insertion order through rowid.
package sqlite
