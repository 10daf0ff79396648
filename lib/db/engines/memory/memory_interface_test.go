package memory

import (
	"testing"

	"github.com/ValentinKolb/dTodo/lib/db"
	dbtesting "github.com/ValentinKolb/dTodo/lib/db/testing"
)

func newDB(string) db.SnapshotDB {
	return NewMemoryDB()
}

func Test(t *testing.T) {
	dbtesting.RunSnapshotDBTests(t, "MemoryDB", newDB, false)
}

func Benchmark(b *testing.B) {
	dbtesting.RunSnapshotDBBenchmarks(b, "MemoryDB", newDB)
}
