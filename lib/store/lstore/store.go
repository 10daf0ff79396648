package lstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/db"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/ValentinKolb/dTodo/lib/store"
	"github.com/ValentinKolb/dTodo/lib/util"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

var (
	readsTotal       = metrics.NewCounter(`dtodo_store_reads_total`)
	writesTotal      = metrics.NewCounter(`dtodo_store_writes_total`)
	writeErrorsTotal = metrics.NewCounter(`dtodo_store_write_errors_total`)
	quarantinedTotal = metrics.NewCounter(`dtodo_store_quarantined_total`)
)

// Options configure a local store.
type Options struct {
	// CallTimeout bounds Get, Flush and Info. Zero means only the caller's context bounds them.
	CallTimeout time.Duration
	// QuarantineCorrupt makes Get move undecodable snapshots aside and report them
	// as absent instead of failing with store.ErrCorruptSnapshot.
	QuarantineCorrupt bool
}

// DefaultOptions returns the options used by the server unless configured otherwise.
func DefaultOptions() Options {
	return Options{
		CallTimeout:       actor.DefaultCallTimeout,
		QuarantineCorrupt: true,
	}
}

// --------------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------------

type msgKind uint8

const (
	msgGet msgKind = iota
	msgPut
	msgFlush
	msgInfo
	msgClose
)

type loadResult struct {
	list   list.List
	loaded bool
	err    error
}

type message struct {
	kind msgKind
	key  string
	list list.List
	ack  func(error)

	loadReply chan<- loadResult
	errReply  chan<- error
	infoReply chan<- store.Info
}

// --------------------------------------------------------------------------
// Store actor
// --------------------------------------------------------------------------

type storeImpl struct {
	database db.SnapshotDB
	opts     Options
	mailbox  *actor.Mailbox[message]
	proc     *actor.Process

	// owned by the store goroutine
	sizes       *util.SizeHistogram
	reads       uint64
	writes      uint64
	writeErrors uint64
	quarantined uint64
}

// NewLocalStore starts a store actor on top of database. The store takes
// ownership of database and closes it on Close.
func NewLocalStore(database db.SnapshotDB, opts Options) store.IStore {
	s := &storeImpl{
		database: database,
		opts:     opts,
		mailbox:  actor.NewMailbox[message](),
		sizes:    util.NewSizeHistogram(),
	}
	s.proc = actor.Spawn("store", s.run, func(exit actor.Exit) {
		if exit.Kind == actor.ExitFailed {
			log.Errorf("store terminated: %v", exit.Err)
		}
	})
	return s
}

// NewLocalStoreFromFactory creates the database with factory and starts a store on it.
func NewLocalStoreFromFactory(factory store.DBFactory, opts Options) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		return nil, fmt.Errorf("create store database: %w", err)
	}
	return NewLocalStore(database, opts), nil
}

func (s *storeImpl) run() error {
	defer func() {
		if err := s.database.Close(); err != nil {
			log.Errorf("closing database failed: %v", err)
		}
	}()
	defer s.mailbox.Close(s.reject)

	for msg := range s.mailbox.Recv() {
		switch msg.kind {
		case msgGet:
			msg.loadReply <- s.load(msg.key)
		case msgPut:
			err := s.persist(msg.key, msg.list)
			if msg.ack != nil {
				msg.ack(err)
			}
		case msgFlush:
			msg.errReply <- nil
		case msgInfo:
			msg.infoReply <- s.info()
		case msgClose:
			msg.errReply <- nil
			return nil
		}
	}
	return nil
}

// reject answers puts that were queued after Close, their writes never happen.
func (s *storeImpl) reject(msg *message) {
	if msg.kind == msgPut && msg.ack != nil {
		msg.ack(actor.NewError(actor.CodeStopped, fmt.Sprintf("store closed before writing %q", msg.key), nil))
	}
}

func (s *storeImpl) load(key string) loadResult {
	data, ok, err := s.database.Load(key)
	if err != nil {
		return loadResult{err: store.NewError(store.RetCInternalError, err.Error())}
	}
	if !ok {
		return loadResult{}
	}

	l, err := list.Unmarshal(data)
	if err != nil {
		if !s.opts.QuarantineCorrupt {
			return loadResult{err: store.NewError(store.RetCCorruptSnapshot, fmt.Sprintf("%q: %v", key, err))}
		}
		if qErr := s.database.Quarantine(key); qErr != nil {
			return loadResult{err: store.NewError(store.RetCInternalError, qErr.Error())}
		}
		s.quarantined++
		quarantinedTotal.Inc()
		log.Warningf("quarantined corrupt snapshot of %q: %v", key, err)
		return loadResult{}
	}

	s.reads++
	readsTotal.Inc()
	return loadResult{list: l, loaded: true}
}

func (s *storeImpl) persist(key string, l list.List) error {
	data, err := l.Marshal()
	if err == nil {
		err = s.database.Save(key, data)
	}
	if err != nil {
		s.writeErrors++
		writeErrorsTotal.Inc()
		log.Errorf("persisting %q failed: %v", key, err)
		return store.NewError(store.RetCInternalError, err.Error())
	}

	s.writes++
	writesTotal.Inc()
	s.sizes.AddSample(len(data))
	log.Debugf("persisted %q (%d entries, %d bytes)", key, l.Len(), len(data))
	return nil
}

func (s *storeImpl) info() store.Info {
	dbInfo, err := s.database.GetInfo()
	if err != nil {
		log.Warningf("reading database info failed: %v", err)
	}
	return store.Info{
		DB:          dbInfo,
		Reads:       s.reads,
		Writes:      s.writes,
		WriteErrors: s.writeErrors,
		Quarantined: s.quarantined,
		Snapshots:   s.sizes.Summary(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(ctx context.Context, key string) (list.List, bool, error) {
	if err := store.ValidateKey(key); err != nil {
		return list.List{}, false, err
	}
	res, err := actor.Call(ctx, s.opts.CallTimeout, s.proc, func(reply chan<- loadResult) bool {
		return s.mailbox.Send(&message{kind: msgGet, key: key, loadReply: reply})
	})
	if err != nil {
		return list.List{}, false, err
	}
	return res.list, res.loaded, res.err
}

func (s *storeImpl) Put(key string, l list.List, ack func(error)) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	if !s.mailbox.Send(&message{kind: msgPut, key: key, list: l, ack: ack}) {
		return actor.Stopped(s.proc)
	}
	return nil
}

func (s *storeImpl) Flush(ctx context.Context) error {
	res, err := actor.Call(ctx, s.opts.CallTimeout, s.proc, func(reply chan<- error) bool {
		return s.mailbox.Send(&message{kind: msgFlush, errReply: reply})
	})
	if err != nil {
		return err
	}
	return res
}

func (s *storeImpl) Info(ctx context.Context) (store.Info, error) {
	return actor.Call(ctx, s.opts.CallTimeout, s.proc, func(reply chan<- store.Info) bool {
		return s.mailbox.Send(&message{kind: msgInfo, infoReply: reply})
	})
}

func (s *storeImpl) Close(ctx context.Context) error {
	// no call timeout here, draining a long write queue may take a while
	if _, err := actor.Call(ctx, 0, s.proc, func(reply chan<- error) bool {
		return s.mailbox.Send(&message{kind: msgClose, errReply: reply})
	}); err != nil {
		return err
	}
	if _, ok := s.proc.Wait(ctx.Done()); !ok {
		return actor.NewError(actor.CodeCanceled, "store close interrupted", ctx.Err())
	}
	return nil
}
