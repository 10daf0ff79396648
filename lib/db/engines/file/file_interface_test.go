package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/dTodo/lib/db"
	dbtesting "github.com/ValentinKolb/dTodo/lib/db/testing"
)

func newDB(dir string) db.SnapshotDB {
	database, err := NewFileDB(dir)
	if err != nil {
		panic(err)
	}
	return database
}

func Test(t *testing.T) {
	dbtesting.RunSnapshotDBTests(t, "FileDB", newDB, true)
}

func Benchmark(b *testing.B) {
	dbtesting.RunSnapshotDBBenchmarks(b, "FileDB", newDB)
}

// TestFilesStayInsideRoot tests that hostile keys are written directly below the root
func TestFilesStayInsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "persist")
	database := newDB(root)
	defer database.Close()

	if err := database.Save("../outside", []byte("{}")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "persist" {
		t.Errorf("snapshot escaped the root directory: %v", entries)
	}

	files, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0].Name(), ".json") {
		t.Errorf("expected exactly one snapshot file, got %v", files)
	}
}

// TestNoTempFilesLeft tests that atomic writes clean up after themselves
func TestNoTempFilesLeft(t *testing.T) {
	root := t.TempDir()
	database := newDB(root)
	defer database.Close()

	for i := 0; i < 10; i++ {
		if err := database.Save("alice", []byte("snapshot")); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	files, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name() != "alice.json" {
		t.Errorf("expected only alice.json, got %v", files)
	}
}

func TestEmptyRoot(t *testing.T) {
	if _, err := NewFileDB(""); err == nil {
		t.Error("expected error for empty root")
	}
}
