// Package storage contains the storage-agnostic contracts for persisting a
// cleaned table: the Repository interface, a kind-keyed factory, and a
// batched loader. Concrete sinks (csv file, sqlite, postgres) live in
// subpackages and register themselves at init time.
package storage

import (
	"context"
	"fmt"
	"sync"

	"winsor/pkg/table"
)

// Repository is the write side of a sink. CopyFrom bulk-inserts rows aligned
// to the columns order and reports how many rows went in; Exec runs raw SQL
// (typically DDL) and is a no-op for non-SQL sinks.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config carries backend-neutral sink settings. Backends read the fields
// they understand and ignore the rest.
type Config struct {
	// Kind selects the registered backend: "csv", "sqlite" or "postgres".
	Kind string

	// DSN is the connection string for database sinks.
	DSN string

	// Table is the destination table for database sinks.
	Table string

	// Columns restricts/orders the written columns. Empty means all.
	Columns []string

	// Path is the destination file for the csv sink.
	Path string

	// Comma overrides the csv sink delimiter; zero means ','.
	Comma rune
}

// Factory constructs a Repository for one storage kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for a storage kind. It is
// called from backend packages' init functions; importing storage/all pulls
// every built-in backend in.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens the Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ColumnDef is the backend-neutral description of one destination column,
// inferred from the cleaned table.
type ColumnDef struct {
	Name    string
	Numeric bool
}

// SchemaOf derives the destination schema from a table. cols restricts and
// orders the output; empty means every column in table order. Unknown names
// are reported as an error so typos fail before any DDL runs.
func SchemaOf(t *table.Table, cols []string) ([]ColumnDef, error) {
	if len(cols) == 0 {
		cols = t.Names()
	}
	defs := make([]ColumnDef, 0, len(cols))
	for _, name := range cols {
		c := t.Column(name)
		if c == nil {
			return nil, fmt.Errorf("storage: column %q not found in result table", name)
		}
		defs = append(defs, ColumnDef{Name: name, Numeric: c.Kind == table.Numeric})
	}
	return defs, nil
}
