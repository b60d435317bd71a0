// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:clean.db?cache=shared"
	//   "clean.db" (interpreted by the driver)
	DSN string

	// Table is the target table name for inserts.
	Table string

	// Columns is the ordered list of destination columns.
	Columns []string
}
