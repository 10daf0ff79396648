package lstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/db"
	"github.com/ValentinKolb/dTodo/lib/db/engines/memory"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/ValentinKolb/dTodo/lib/store"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// failingDB wraps a SnapshotDB and fails every Save while failSaves is set.
type failingDB struct {
	db.SnapshotDB
	mu        sync.Mutex
	failSaves bool
	saveDelay time.Duration
}

func (f *failingDB) Save(key string, data []byte) error {
	f.mu.Lock()
	fail, delay := f.failSaves, f.saveDelay
	f.mu.Unlock()
	time.Sleep(delay)
	if fail {
		return errors.New("disk full")
	}
	return f.SnapshotDB.Save(key, data)
}

func (f *failingDB) setFail(fail bool) {
	f.mu.Lock()
	f.failSaves = fail
	f.mu.Unlock()
}

func newTestStore(t *testing.T, database db.SnapshotDB, opts Options) store.IStore {
	t.Helper()
	s := NewLocalStore(database, opts)
	t.Cleanup(func() {
		_ = s.Close(context.Background())
	})
	return s
}

func sampleList(titles ...string) list.List {
	l := list.New()
	for _, title := range titles {
		l.Add(list.Entry{Date: list.MustParseDate("2024-01-01"), Title: title})
	}
	return l
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestPutGetRoundTrip tests that a put list is returned unchanged by a later get
func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, memory.NewMemoryDB(), DefaultOptions())
	ctx := context.Background()

	if _, loaded, err := s.Get(ctx, "alice"); err != nil || loaded {
		t.Fatalf("expected absent list, got loaded=%v err=%v", loaded, err)
	}

	want := sampleList("A", "B")
	acked := make(chan error, 1)
	if err := s.Put("alice", want.Clone(), func(err error) { acked <- err }); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// the put was queued first, so the get observes it
	got, loaded, err := s.Get(ctx, "alice")
	if err != nil || !loaded {
		t.Fatalf("Get failed: loaded=%v err=%v", loaded, err)
	}
	if !got.Equal(want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	select {
	case err := <-acked:
		if err != nil {
			t.Errorf("expected successful ack, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ack not called")
	}
}

// TestPutOverwritesInOrder tests that the last queued snapshot wins
func TestPutOverwritesInOrder(t *testing.T) {
	s := newTestStore(t, memory.NewMemoryDB(), DefaultOptions())

	for i := 1; i <= 50; i++ {
		titles := make([]string, i)
		for j := range titles {
			titles[j] = "t"
		}
		if err := s.Put("bob", sampleList(titles...), nil); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	got, _, err := s.Get(context.Background(), "bob")
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 50 || got.AutoID != 50 {
		t.Errorf("expected the last snapshot with 50 entries, got %d (auto id %d)", got.Len(), got.AutoID)
	}

	info, err := s.Info(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Writes != 50 || info.Snapshots.Count != 50 {
		t.Errorf("expected 50 writes, got %+v", info)
	}
	if info.DB.Keys != 1 {
		t.Errorf("expected 1 key in database, got %d", info.DB.Keys)
	}
}

// TestWriteFailureIsReported tests that a failed write reaches the ack and keeps the store alive
func TestWriteFailureIsReported(t *testing.T) {
	database := &failingDB{SnapshotDB: memory.NewMemoryDB(), failSaves: true}
	s := newTestStore(t, database, DefaultOptions())

	acked := make(chan error, 1)
	if err := s.Put("carol", sampleList("A"), func(err error) { acked <- err }); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	err := <-acked
	if !errors.Is(err, store.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}

	// the old (absent) snapshot is still what a get returns
	if _, loaded, err := s.Get(context.Background(), "carol"); err != nil || loaded {
		t.Errorf("expected absent snapshot after failed write, got loaded=%v err=%v", loaded, err)
	}

	database.setFail(false)
	if err := s.Put("carol", sampleList("A"), func(err error) { acked <- err }); err != nil {
		t.Fatal(err)
	}
	if err := <-acked; err != nil {
		t.Errorf("expected recovery after failure, got %v", err)
	}

	info, _ := s.Info(context.Background())
	if info.WriteErrors != 1 || info.Writes != 1 {
		t.Errorf("unexpected counters %+v", info)
	}
}

// TestCorruptSnapshot tests both corruption policies
func TestCorruptSnapshot(t *testing.T) {
	t.Run("Quarantine", func(t *testing.T) {
		database := memory.NewMemoryDB()
		_ = database.Save("dave", []byte("{broken"))
		s := newTestStore(t, database, DefaultOptions())

		_, loaded, err := s.Get(context.Background(), "dave")
		if err != nil || loaded {
			t.Fatalf("expected corrupt snapshot to be reported absent, got loaded=%v err=%v", loaded, err)
		}
		info, _ := s.Info(context.Background())
		if info.Quarantined != 1 || info.DB.Quarantined != 1 {
			t.Errorf("expected one quarantined snapshot, got %+v", info)
		}
	})

	t.Run("Fail", func(t *testing.T) {
		database := memory.NewMemoryDB()
		_ = database.Save("dave", []byte("{broken"))
		opts := DefaultOptions()
		opts.QuarantineCorrupt = false
		s := newTestStore(t, database, opts)

		_, _, err := s.Get(context.Background(), "dave")
		if !errors.Is(err, store.ErrCorruptSnapshot) {
			t.Fatalf("expected corrupt snapshot error, got %v", err)
		}
		// the snapshot is left in place
		if _, ok, _ := database.Load("dave"); !ok {
			t.Error("corrupt snapshot should not be removed")
		}
	})
}

// TestInvalidKey tests that empty keys are rejected without reaching the database
func TestInvalidKey(t *testing.T) {
	s := newTestStore(t, memory.NewMemoryDB(), DefaultOptions())

	if err := s.Put("", sampleList("A"), nil); !errors.Is(err, store.ErrInvalidKey) {
		t.Errorf("expected invalid key on Put, got %v", err)
	}
	if _, _, err := s.Get(context.Background(), ""); !errors.Is(err, store.ErrInvalidKey) {
		t.Errorf("expected invalid key on Get, got %v", err)
	}
}

// TestGetTimeout tests that a store stuck in a slow write makes calls time out
func TestGetTimeout(t *testing.T) {
	database := &failingDB{SnapshotDB: memory.NewMemoryDB(), saveDelay: 300 * time.Millisecond}
	opts := DefaultOptions()
	opts.CallTimeout = 20 * time.Millisecond
	s := newTestStore(t, database, opts)

	_ = s.Put("erin", sampleList("A"), nil)
	_, _, err := s.Get(context.Background(), "erin")
	if !errors.Is(err, actor.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

// TestClose tests that queued writes are processed before close and later calls fail
func TestClose(t *testing.T) {
	database := memory.NewMemoryDB()
	s := NewLocalStore(database, DefaultOptions())

	acked := make(chan error, 10)
	for i := 0; i < 10; i++ {
		_ = s.Put("frank", sampleList("A"), func(err error) { acked <- err })
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := <-acked; err != nil {
			t.Errorf("write %d failed: %v", i, err)
		}
	}

	if err := s.Put("frank", sampleList("B"), nil); !errors.Is(err, actor.ErrStopped) {
		t.Errorf("expected stopped after close, got %v", err)
	}
	if _, _, err := s.Get(context.Background(), "frank"); !errors.Is(err, actor.ErrStopped) {
		t.Errorf("expected stopped after close, got %v", err)
	}
}
