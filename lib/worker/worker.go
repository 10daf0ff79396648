package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/ValentinKolb/dTodo/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("worker")

var (
	postsTotal         = metrics.NewCounter(`dtodo_worker_posts_total`)
	getsTotal          = metrics.NewCounter(`dtodo_worker_gets_total`)
	crashesTotal       = metrics.NewCounter(`dtodo_worker_crashes_total`)
	persistErrorsTotal = metrics.NewCounter(`dtodo_worker_persist_errors_total`)
)

// Options configure a worker.
type Options struct {
	// CallTimeout bounds Get, Flush and Status. Zero means only the caller's context bounds them.
	CallTimeout time.Duration
}

// Status is a snapshot of a worker's bookkeeping.
type Status struct {
	Key     string `json:"key"`
	Entries int    `json:"entries"`
	NextID  uint64 `json:"next_id"`
	// Posted counts the snapshots queued at the store, Persisted the ones the store answered.
	Posted    uint64 `json:"posted"`
	Persisted uint64 `json:"persisted"`
	// LastPersistError is the error of the newest answered write, empty if it succeeded.
	LastPersistError string `json:"last_persist_error,omitempty"`
}

// --------------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------------

type msgKind uint8

const (
	msgPost msgKind = iota
	msgGet
	msgFlush
	msgStatus
	msgCrash
	msgStop
	msgPersisted
)

type message struct {
	kind    msgKind
	entry   list.Entry
	date    list.Date
	version uint64
	err     error

	entriesReply chan<- []list.Entry
	errReply     chan<- error
	statusReply  chan<- Status
}

type flushWaiter struct {
	version uint64
	reply   chan<- error
}

// --------------------------------------------------------------------------
// Worker actor
// --------------------------------------------------------------------------

type worker struct {
	key     string
	store   store.IStore
	mailbox *actor.Mailbox[message]

	// owned by the worker goroutine
	list      list.List
	posted    uint64
	persisted uint64
	lastErr   error
	waiters   []flushWaiter
}

// Spawn starts a worker for key. onExit (may be nil) is called once the worker terminated,
// after its Done channel was closed.
func Spawn(key string, s store.IStore, opts Options, onExit func(actor.Exit)) (*Handle, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, actor.NewError(actor.CodeInvalidArgument, "cannot spawn worker", err)
	}

	w := &worker{
		key:     key,
		store:   s,
		mailbox: actor.NewMailbox[message](),
	}
	proc := actor.Spawn("worker/"+key, w.run, func(exit actor.Exit) {
		if exit.Kind == actor.ExitFailed {
			log.Warningf("worker for %q terminated: %v", key, exit.Err)
		} else {
			log.Debugf("worker for %q stopped", key)
		}
		if onExit != nil {
			onExit(exit)
		}
	})

	return &Handle{
		key:     key,
		proc:    proc,
		mailbox: w.mailbox,
		timeout: opts.CallTimeout,
	}, nil
}

func (w *worker) run() error {
	defer w.mailbox.Close(nil)

	l, loaded, err := w.store.Get(context.Background(), w.key)
	if err != nil {
		return fmt.Errorf("load %q: %w", w.key, err)
	}
	if loaded {
		w.list = l
	} else {
		w.list = list.New()
	}
	log.Debugf("worker for %q started with %d entries", w.key, w.list.Len())

	for msg := range w.mailbox.Recv() {
		if stop := w.handle(msg); stop {
			return nil
		}
	}
	return nil
}

// handle processes one message and reports whether the worker should stop.
func (w *worker) handle(msg *message) bool {
	switch msg.kind {
	case msgPost:
		w.post(msg.entry)
	case msgGet:
		getsTotal.Inc()
		msg.entriesReply <- w.list.On(msg.date)
	case msgFlush:
		if w.persisted >= w.posted {
			msg.errReply <- w.lastErr
		} else {
			w.waiters = append(w.waiters, flushWaiter{version: w.posted, reply: msg.errReply})
		}
	case msgStatus:
		msg.statusReply <- w.status()
	case msgPersisted:
		w.acknowledge(msg.version, msg.err)
	case msgCrash:
		crashesTotal.Inc()
		panic(fmt.Sprintf("worker for %q crashed on request", w.key))
	case msgStop:
		return true
	}
	return false
}

func (w *worker) post(e list.Entry) {
	id := w.list.Add(e)
	postsTotal.Inc()

	w.posted++
	version := w.posted
	ack := func(err error) {
		// the worker may be gone by now, the ack is dropped then
		w.mailbox.Send(&message{kind: msgPersisted, version: version, err: err})
	}
	if err := w.store.Put(w.key, w.list.Clone(), ack); err != nil {
		w.acknowledge(version, err)
	}
	log.Debugf("posted entry %d to %q", id, w.key)
}

// acknowledge records the store's answer for snapshot version and releases flush waiters.
// Every snapshot contains the full list, so the newest answer decides whether the
// persisted state is current.
func (w *worker) acknowledge(version uint64, err error) {
	if version > w.persisted {
		w.persisted = version
		w.lastErr = err
	}
	if err != nil {
		persistErrorsTotal.Inc()
		log.Warningf("snapshot %d of %q not persisted, state is only in memory: %v", version, w.key, err)
	}

	remaining := w.waiters[:0]
	for _, waiter := range w.waiters {
		if waiter.version <= w.persisted {
			waiter.reply <- w.lastErr
		} else {
			remaining = append(remaining, waiter)
		}
	}
	w.waiters = remaining
}

func (w *worker) status() Status {
	s := Status{
		Key:       w.key,
		Entries:   w.list.Len(),
		NextID:    w.list.AutoID,
		Posted:    w.posted,
		Persisted: w.persisted,
	}
	if w.lastErr != nil {
		s.LastPersistError = w.lastErr.Error()
	}
	return s
}
