package worker

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
	"github.com/ValentinKolb/dTodo/lib/store/lstore"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

var (
	jan1 = list.MustParseDate("2024-01-01")
	jan2 = list.MustParseDate("2024-01-02")
)

type flakyDB struct {
	db.SnapshotDB
	mu   sync.Mutex
	fail bool
}

func (f *flakyDB) Save(key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	return f.SnapshotDB.Save(key, data)
}

func (f *flakyDB) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func newStore(t *testing.T, database db.SnapshotDB, opts lstore.Options) store.IStore {
	t.Helper()
	s := lstore.NewLocalStore(database, opts)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func spawn(t *testing.T, key string, s store.IStore) (*Handle, <-chan actor.Exit) {
	t.Helper()
	exits := make(chan actor.Exit, 1)
	h, err := Spawn(key, s, Options{CallTimeout: time.Second}, func(e actor.Exit) { exits <- e })
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	t.Cleanup(func() { _ = h.Stop() })
	return h, exits
}

func waitExit(t *testing.T, exits <-chan actor.Exit) actor.Exit {
	t.Helper()
	select {
	case e := <-exits:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit")
		return actor.Exit{}
	}
}

func titles(entries []list.Entry) map[string]bool {
	m := make(map[string]bool, len(entries))
	for _, e := range entries {
		m[e.Title] = true
	}
	return m
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestPostGet tests posting entries and filtering them by date
func TestPostGet(t *testing.T) {
	s := newStore(t, memory.NewMemoryDB(), lstore.DefaultOptions())
	h, _ := spawn(t, "alice", s)
	ctx := context.Background()

	_ = h.Post(list.Entry{Date: jan1, Title: "A"})
	_ = h.Post(list.Entry{Date: jan2, Title: "B"})
	_ = h.Post(list.Entry{Date: jan1, Title: "C"})

	got, err := h.Get(ctx, jan1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tt := titles(got); len(got) != 2 || !tt["A"] || !tt["C"] {
		t.Errorf("expected A and C, got %v", got)
	}

	got, err = h.Get(ctx, list.MustParseDate("2031-05-05"))
	if err != nil || len(got) != 0 {
		t.Errorf("expected no entries, got %v (err %v)", got, err)
	}

	status, err := h.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Entries != 3 || status.NextID != 3 {
		t.Errorf("unexpected status %+v", status)
	}
}

// TestLoadBeforeServe tests that a new worker starts from the persisted list
func TestLoadBeforeServe(t *testing.T) {
	database := memory.NewMemoryDB()
	persisted := list.New()
	persisted.Add(list.Entry{Date: jan1, Title: "old-0"})
	persisted.Add(list.Entry{Date: jan1, Title: "old-1"})
	data, _ := persisted.Marshal()
	_ = database.Save("bob", data)

	s := newStore(t, database, lstore.DefaultOptions())
	h, _ := spawn(t, "bob", s)

	// queued while the worker may still be loading
	_ = h.Post(list.Entry{Date: jan1, Title: "new"})

	got, err := h.Get(context.Background(), jan1)
	if err != nil {
		t.Fatal(err)
	}
	if tt := titles(got); len(got) != 3 || !tt["old-0"] || !tt["old-1"] || !tt["new"] {
		t.Errorf("expected persisted and new entries, got %v", got)
	}

	status, _ := h.Status(context.Background())
	if status.NextID != 3 {
		t.Errorf("expected the counter to continue at 3, got %d", status.NextID)
	}
}

// TestFlushPersists tests that flush waits for the write-through of all posted entries
func TestFlushPersists(t *testing.T) {
	database := memory.NewMemoryDB()
	s := newStore(t, database, lstore.DefaultOptions())
	h, _ := spawn(t, "carol", s)

	if err := h.Flush(context.Background()); err != nil {
		t.Fatalf("Flush without posts failed: %v", err)
	}

	for i := 0; i < 25; i++ {
		_ = h.Post(list.Entry{Date: jan1, Title: "t"})
	}
	if err := h.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, ok, err := database.Load("carol")
	if err != nil || !ok {
		t.Fatalf("expected persisted snapshot, got ok=%v err=%v", ok, err)
	}
	l, err := list.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 25 || l.AutoID != 25 {
		t.Errorf("expected 25 persisted entries, got %d (auto id %d)", l.Len(), l.AutoID)
	}

	status, _ := h.Status(context.Background())
	if status.Posted != 25 || status.Persisted != 25 || status.LastPersistError != "" {
		t.Errorf("unexpected status %+v", status)
	}
}

// TestPersistFailureKeepsMemoryState tests that a failed write leaves the worker serving
// from memory and is reported until a later write succeeds
func TestPersistFailureKeepsMemoryState(t *testing.T) {
	database := &flakyDB{SnapshotDB: memory.NewMemoryDB(), fail: true}
	s := newStore(t, database, lstore.DefaultOptions())
	h, _ := spawn(t, "dave", s)
	ctx := context.Background()

	_ = h.Post(list.Entry{Date: jan1, Title: "A"})
	if err := h.Flush(ctx); !errors.Is(err, store.ErrInternal) {
		t.Fatalf("expected persist error from flush, got %v", err)
	}

	got, err := h.Get(ctx, jan1)
	if err != nil || len(got) != 1 {
		t.Errorf("expected entry to be served from memory, got %v (err %v)", got, err)
	}
	status, _ := h.Status(ctx)
	if status.LastPersistError == "" {
		t.Error("expected status to report the failed write")
	}

	database.setFail(false)
	_ = h.Post(list.Entry{Date: jan1, Title: "B"})
	if err := h.Flush(ctx); err != nil {
		t.Errorf("expected a successful write to clear the error, got %v", err)
	}
	if _, ok, _ := database.Load("dave"); !ok {
		t.Error("expected snapshot after recovery")
	}
}

// TestCrash tests the deliberate failure of a worker
func TestCrash(t *testing.T) {
	s := newStore(t, memory.NewMemoryDB(), lstore.DefaultOptions())
	h, exits := spawn(t, "erin", s)

	_ = h.Post(list.Entry{Date: jan1, Title: "A"})
	if err := h.Crash(); err != nil {
		t.Fatalf("Crash failed: %v", err)
	}

	exit := waitExit(t, exits)
	if exit.Kind != actor.ExitFailed || exit.ID != h.ID() {
		t.Fatalf("expected failed exit of %s, got %v", h.ID(), exit)
	}
	var panicErr *actor.PanicError
	if !errors.As(exit.Err, &panicErr) {
		t.Errorf("expected panic as exit error, got %v", exit.Err)
	}

	if h.Alive() {
		t.Error("crashed worker should not be alive")
	}
	if _, err := h.Get(context.Background(), jan1); !errors.Is(err, actor.ErrStopped) {
		t.Errorf("expected stopped, got %v", err)
	}
	if err := h.Post(list.Entry{Date: jan1, Title: "B"}); !errors.Is(err, actor.ErrStopped) {
		t.Errorf("expected stopped on post, got %v", err)
	}
}

// TestLoadFailure tests that a worker whose load fails terminates with the cause
func TestLoadFailure(t *testing.T) {
	database := memory.NewMemoryDB()
	_ = database.Save("frank", []byte("{corrupt"))
	opts := lstore.DefaultOptions()
	opts.QuarantineCorrupt = false
	s := newStore(t, database, opts)

	h, exits := spawn(t, "frank", s)
	exit := waitExit(t, exits)
	if exit.Kind != actor.ExitFailed || !errors.Is(exit.Err, store.ErrCorruptSnapshot) {
		t.Fatalf("expected failed exit caused by corrupt snapshot, got %v", exit)
	}

	_, err := h.Get(context.Background(), jan1)
	if !errors.Is(err, actor.ErrStopped) || !errors.Is(err, store.ErrCorruptSnapshot) {
		t.Errorf("expected stopped error carrying the load failure, got %v", err)
	}
}

// TestStop tests the normal termination of a worker
func TestStop(t *testing.T) {
	s := newStore(t, memory.NewMemoryDB(), lstore.DefaultOptions())
	h, exits := spawn(t, "gina", s)

	if err := h.Stop(); err != nil {
		t.Fatal(err)
	}
	if exit := waitExit(t, exits); exit.Kind != actor.ExitNormal || exit.Err != nil {
		t.Errorf("expected normal exit, got %v", exit)
	}
}

// TestSpawnValidation tests that invalid keys and entries are rejected
func TestSpawnValidation(t *testing.T) {
	s := newStore(t, memory.NewMemoryDB(), lstore.DefaultOptions())

	if _, err := Spawn("", s, Options{}, nil); !errors.Is(err, actor.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for empty key, got %v", err)
	}

	h, _ := spawn(t, "hank", s)
	if err := h.Post(list.Entry{Title: "no date"}); !errors.Is(err, actor.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for entry without date, got %v", err)
	}
}
