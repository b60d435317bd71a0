package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the destination table for one backend from the
// inferred schema, typically via repo.Exec with a CREATE TABLE IF NOT
// EXISTS. Backends register their implementation at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, tableName string, schema []ColumnDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given
// storage kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper for kind and invokes it, so that
// callers stay backend-agnostic. Kinds without a registered bootstrapper
// (e.g. file sinks) error; callers should gate on AutoCreateTable.
func EnsureTable(ctx context.Context, kind string, repo Repository, tableName string, schema []ColumnDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper registered for kind %q", kind)
	}
	return fn(ctx, repo, tableName, schema)
}
