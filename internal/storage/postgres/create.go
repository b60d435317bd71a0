// Postgres-specific DDL generation for the inferred destination schema.
package postgres

import (
	"fmt"
	"strings"

	"winsor/internal/storage"
)

// BuildCreateTableSQL builds a deterministic Postgres CREATE TABLE IF NOT
// EXISTS statement for the inferred schema. Numeric columns become double
// precision, everything else text. Identifiers are double-quoted with
// embedded quotes escaped.
func BuildCreateTableSQL(fqn string, schema []storage.ColumnDef) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("postgres ddl: table FQN must not be empty")
	}
	if len(schema) == 0 {
		return "", fmt.Errorf("postgres ddl: at least one column is required")
	}

	cols := make([]string, 0, len(schema))
	for _, c := range schema {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("postgres ddl: column with empty name in table %s", fqn)
		}
		typ := "text"
		if c.Numeric {
			typ = "double precision"
		}
		cols = append(cols, pgIdent(name)+" "+typ)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		pgFQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}
