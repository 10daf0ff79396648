// Package db defines SnapshotDB, the persistence interface underneath the store,
// together with its implementations in db/engines and a shared conformance test
// suite in db/testing.
//
// A SnapshotDB maps a key to one opaque byte snapshot. Every Save overwrites the
// whole snapshot, there are no partial updates. Corrupt snapshots are not deleted
// but quarantined, so an operator can inspect and repair them.
//
// Engines:
//
//   - file: one file per key below a root directory, written atomically via
//     temp file and rename ("github.com/ValentinKolb/dTodo/lib/db/engines/file").
//   - memory: an in-memory map, for tests and ephemeral servers
//     ("github.com/ValentinKolb/dTodo/lib/db/engines/memory").
//   - sqlite: a single SQLite database file through modernc.org/sqlite
//     ("github.com/ValentinKolb/dTodo/lib/db/engines/sqlite").
package db
