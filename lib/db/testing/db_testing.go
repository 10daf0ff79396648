package testing

import (
	"bytes"
	"fmt"
	"sort"
	"testing"

	"github.com/ValentinKolb/dTodo/lib/db"
)

// DBFactory creates a SnapshotDB located in dir. Calling it twice with the
// same dir must open the same data for persistent implementations.
type DBFactory func(dir string) db.SnapshotDB

// RunSnapshotDBTests runs the conformance suite for a SnapshotDB implementation.
func RunSnapshotDBTests(t *testing.T, name string, factory DBFactory, persistent bool) {
	t.Run(name, func(t *testing.T) {
		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory(t.TempDir()))
		})

		t.Run("Absent", func(t *testing.T) {
			testAbsent(t, factory(t.TempDir()))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, factory(t.TempDir()))
		})

		t.Run("Isolation", func(t *testing.T) {
			testIsolation(t, factory(t.TempDir()))
		})

		t.Run("UnusualKeys", func(t *testing.T) {
			testUnusualKeys(t, factory(t.TempDir()))
		})

		t.Run("Quarantine", func(t *testing.T) {
			testQuarantine(t, factory(t.TempDir()))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t.TempDir()))
		})

		if persistent {
			t.Run("Reopen", func(t *testing.T) {
				testReopen(t, factory)
			})
		}
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustSave(t *testing.T, database db.SnapshotDB, key string, data []byte) {
	t.Helper()
	if err := database.Save(key, data); err != nil {
		t.Fatalf("Save(%q) failed: %v", key, err)
	}
}

func mustLoad(t *testing.T, database db.SnapshotDB, key string) ([]byte, bool) {
	t.Helper()
	data, ok, err := database.Load(key)
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", key, err)
	}
	return data, ok
}

func sortedKeys(t *testing.T, database db.SnapshotDB) []string {
	t.Helper()
	keys, err := database.Keys()
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	sort.Strings(keys)
	return keys
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSaveLoad(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	value := []byte(`{"auto_id":1,"entries":{"0":{"date":"2024-01-01","title":"A"}}}`)
	mustSave(t, database, "alice", value)

	result, ok := mustLoad(t, database, "alice")
	if !ok {
		t.Fatal("Expected snapshot to exist after Save")
	}
	if !bytes.Equal(result, value) {
		t.Errorf("Expected %s, got %s", value, result)
	}

	// the returned slice belongs to the caller
	result[0] = 'X'
	again, _ := mustLoad(t, database, "alice")
	if !bytes.Equal(again, value) {
		t.Error("Modifying a loaded snapshot changed the stored data")
	}
}

func testAbsent(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	data, ok := mustLoad(t, database, "nobody")
	if ok || data != nil {
		t.Errorf("Expected absent snapshot, got %q (loaded=%v)", data, ok)
	}
	if keys := sortedKeys(t, database); len(keys) != 0 {
		t.Errorf("Expected no keys, got %v", keys)
	}
}

func testOverwrite(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	mustSave(t, database, "k", []byte("first-and-longer"))
	mustSave(t, database, "k", []byte("second"))

	result, _ := mustLoad(t, database, "k")
	if string(result) != "second" {
		t.Errorf("Expected full overwrite, got %q", result)
	}
	if keys := sortedKeys(t, database); len(keys) != 1 {
		t.Errorf("Expected one key after overwrite, got %v", keys)
	}
}

func testIsolation(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	for i := 0; i < 20; i++ {
		mustSave(t, database, fmt.Sprintf("key-%02d", i), []byte(fmt.Sprintf("value-%d", i)))
	}
	for i := 0; i < 20; i++ {
		result, ok := mustLoad(t, database, fmt.Sprintf("key-%02d", i))
		if !ok || string(result) != fmt.Sprintf("value-%d", i) {
			t.Errorf("key-%02d: unexpected snapshot %q", i, result)
		}
	}
	if keys := sortedKeys(t, database); len(keys) != 20 || keys[0] != "key-00" || keys[19] != "key-19" {
		t.Errorf("unexpected keys %v", keys)
	}
}

func testUnusualKeys(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	keys := []string{"with space", "slash/inside", "../escape", "ünïcødé", "percent%41", ".hidden", "a.json"}
	for i, key := range keys {
		mustSave(t, database, key, []byte{byte(i)})
	}
	for i, key := range keys {
		result, ok := mustLoad(t, database, key)
		if !ok || !bytes.Equal(result, []byte{byte(i)}) {
			t.Errorf("key %q: unexpected snapshot %v (loaded=%v)", key, result, ok)
		}
	}

	got := sortedKeys(t, database)
	want := append([]string(nil), keys...)
	sort.Strings(want)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Keys() = %q, want %q", got, want)
	}
}

func testQuarantine(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	mustSave(t, database, "broken", []byte("{not json"))
	mustSave(t, database, "fine", []byte("{}"))

	if err := database.Quarantine("broken"); err != nil {
		t.Fatalf("Quarantine failed: %v", err)
	}
	if _, ok := mustLoad(t, database, "broken"); ok {
		t.Error("Quarantined snapshot should be absent")
	}
	if _, ok := mustLoad(t, database, "fine"); !ok {
		t.Error("Quarantine affected another key")
	}

	// quarantining an absent key is not an error
	if err := database.Quarantine("never-saved"); err != nil {
		t.Errorf("Quarantine of absent key failed: %v", err)
	}

	// the key can be written again after quarantine
	mustSave(t, database, "broken", []byte("{}"))
	if _, ok := mustLoad(t, database, "broken"); !ok {
		t.Error("Expected new snapshot after quarantine")
	}

	info, err := database.GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.Quarantined != 1 {
		t.Errorf("Expected 1 quarantined snapshot, got %d", info.Quarantined)
	}
}

func testInfo(t *testing.T, database db.SnapshotDB) {
	defer database.Close()

	mustSave(t, database, "a", make([]byte, 100))
	mustSave(t, database, "b", make([]byte, 50))

	info, err := database.GetInfo()
	if err != nil {
		t.Fatalf("GetInfo failed: %v", err)
	}
	if info.Keys != 2 {
		t.Errorf("Expected 2 keys, got %d", info.Keys)
	}
	if info.SizeBytes != 150 {
		t.Errorf("Expected 150 bytes, got %d", info.SizeBytes)
	}
	if _, err := db.ParseImplementation(string(info.DbType)); err != nil {
		t.Errorf("GetInfo reported unknown type: %v", err)
	}
}

func testReopen(t *testing.T, factory DBFactory) {
	dir := t.TempDir()

	first := factory(dir)
	mustSave(t, first, "persisted", []byte("data"))
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := factory(dir)
	defer second.Close()
	result, ok := mustLoad(t, second, "persisted")
	if !ok || string(result) != "data" {
		t.Errorf("Expected snapshot to survive reopen, got %q (loaded=%v)", result, ok)
	}
}
