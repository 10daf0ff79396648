// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.SnapshotDB interface.
//
// Example usage:
//
//	factory := func(dir string) db.SnapshotDB {
//		database, err := NewMyDatabase(dir)
//		if err != nil {
//			panic(err)
//		}
//		return database
//	}
//
//	// persistent=true additionally checks that snapshots survive a reopen of dir
//	testing.RunSnapshotDBTests(t, "MyDatabase", factory, true)
//	testing.RunSnapshotDBBenchmarks(b, "MyDatabase", factory)
package testing
