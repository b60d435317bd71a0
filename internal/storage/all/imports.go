// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories and DDL bootstrappers with the storage package. Importing
// it makes the following storage kinds available at runtime:
//
//   - "csv"      (winsor/internal/storage/csvfile)
//   - "sqlite"   (winsor/internal/storage/sqlite)
//   - "postgres" (winsor/internal/storage/postgres)
//
// Binaries that want a subset of backends can blank-import the specific
// backend packages instead of this one.
package all

import (
	_ "winsor/internal/storage/csvfile"
	_ "winsor/internal/storage/postgres"
	_ "winsor/internal/storage/sqlite"
)
