package testing

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dTodo/lib/db"
)

// RunSnapshotDBBenchmarks runs all benchmarks for a SnapshotDB implementation
func RunSnapshotDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name+"/Save", func(b *testing.B) {
		benchmarkSave(b, factory(b.TempDir()), 512)
	})

	b.Run(name+"/SaveLarge", func(b *testing.B) {
		benchmarkSave(b, factory(b.TempDir()), 64*1024)
	})

	b.Run(name+"/Load", func(b *testing.B) {
		benchmarkLoad(b, factory(b.TempDir()))
	})
}

func benchmarkSave(b *testing.B, database db.SnapshotDB, size int) {
	defer database.Close()

	value := make([]byte, size)
	b.SetBytes(int64(size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := database.Save(fmt.Sprintf("key-%d", i%100), value); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkLoad(b *testing.B, database db.SnapshotDB) {
	defer database.Close()

	for i := 0; i < 100; i++ {
		if err := database.Save(fmt.Sprintf("key-%d", i), make([]byte, 512)); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := database.Load(fmt.Sprintf("key-%d", i%100)); err != nil {
			b.Fatal(err)
		}
	}
}
