// Factory and DDL wiring for the SQLite backend; registration happens in
// init so callers only import winsor/internal/storage/all.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"winsor/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adapts *sqlite.Repository to the storage.Repository interface,
// adding a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS for the inferred
// schema: numeric columns become REAL, everything else TEXT.
func BuildCreateTableSQL(tableName string, schema []storage.ColumnDef) (string, error) {
	if strings.TrimSpace(tableName) == "" {
		return "", fmt.Errorf("sqlite ddl: table name must not be empty")
	}
	if len(schema) == 0 {
		return "", fmt.Errorf("sqlite ddl: at least one column is required")
	}
	cols := make([]string, 0, len(schema))
	for _, c := range schema {
		typ := "TEXT"
		if c.Numeric {
			typ = "REAL"
		}
		cols = append(cols, quoteIdent(c.Name)+" "+typ)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteIdent(tableName),
		strings.Join(cols, ",\n  "),
	), nil
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("sqlite",
		func(ctx context.Context, repo storage.Repository, tableName string, schema []storage.ColumnDef) error {
			ddl, err := BuildCreateTableSQL(tableName, schema)
			if err != nil {
				return err
			}
			return repo.Exec(ctx, ddl)
		})
}
