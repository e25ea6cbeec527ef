// Package sqliteexternal provides the optional CGO SQLite driver used by the
// sqlitewriter when the recovered tuples are written out as a new database
// image.
//
// This package is part of the github.com/forensiq/sqlrecover module.
//
// # CGO SQLite Driver
//
// To use the CGO driver (github.com/mattn/go-sqlite3):
//
//	import _ "github.com/forensiq/sqlrecover/contrib/sqlite-external"
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite
//
// # Default Pure Go Driver
//
// By default, sqlrecover writes output databases with a pure Go SQLite
// implementation that requires no CGO. See
// github.com/forensiq/sqlrecover/core/sqlite for details.
//
// # When to Use
//
// Use this package when:
//   - Performance is critical (2-5x faster for large recovery dumps)
//   - You already have CGO in your build pipeline
//
// Use the default pure Go driver when:
//   - Portability is important
//   - Cross-compilation is required
//   - You want simpler deployment (single binary)
package sqliteexternal
