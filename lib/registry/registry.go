package registry

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/store"
	"github.com/ValentinKolb/dTodo/lib/worker"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("registry")

var (
	activeWorkers atomic.Int64

	spawnedTotal       = metrics.NewCounter(`dtodo_workers_spawned_total`)
	spawnFailuresTotal = metrics.NewCounter(`dtodo_workers_spawn_failures_total`)
	exitedNormalTotal  = metrics.NewCounter(`dtodo_workers_exited_total{reason="normal"}`)
	exitedFailedTotal  = metrics.NewCounter(`dtodo_workers_exited_total{reason="failed"}`)
	_                  = metrics.NewGauge(`dtodo_workers_active`, func() float64 {
		return float64(activeWorkers.Load())
	})
)

// Options configure a registry.
type Options struct {
	// MaxWorkers limits the number of live workers. Zero means unlimited.
	MaxWorkers int
	// CallTimeout bounds calls to the registry. Zero means only the caller's context bounds them.
	CallTimeout time.Duration
	// Worker is passed to every spawned worker.
	Worker worker.Options
}

// DefaultOptions returns unlimited workers and the default call timeout.
func DefaultOptions() Options {
	return Options{
		CallTimeout: actor.DefaultCallTimeout,
		Worker:      worker.Options{CallTimeout: actor.DefaultCallTimeout},
	}
}

// --------------------------------------------------------------------------
// Messages
// --------------------------------------------------------------------------

type msgKind uint8

const (
	msgResolve msgKind = iota
	msgLookup
	msgExit
	msgKeys
	msgStats
	msgShutdown
)

type resolveResult struct {
	handle *worker.Handle
	err    error
}

type message struct {
	kind msgKind
	key  string
	exit actor.Exit

	resolveReply chan<- resolveResult
	keysReply    chan<- []string
	statsReply   chan<- Stats
	errReply     chan<- error
}

// --------------------------------------------------------------------------
// Registry actor
// --------------------------------------------------------------------------

type registryImpl struct {
	store   store.IStore
	opts    Options
	mailbox *actor.Mailbox[message]
	proc    *actor.Process

	// owned by the registry goroutine
	workers  map[string]*worker.Handle
	stats    Stats
	closing  bool
	shutdown []chan<- error
}

// NewRegistry starts a registry whose workers persist through s.
// The registry does not own s; close it after Shutdown.
func NewRegistry(s store.IStore, opts Options) IRegistry {
	r := &registryImpl{
		store:   s,
		opts:    opts,
		mailbox: actor.NewMailbox[message](),
		workers: make(map[string]*worker.Handle),
	}
	r.proc = actor.Spawn("registry", r.run, func(exit actor.Exit) {
		if exit.Kind == actor.ExitFailed {
			log.Errorf("registry terminated: %v", exit.Err)
		}
	})
	return r
}

func (r *registryImpl) run() error {
	defer r.mailbox.Close(nil)

	for msg := range r.mailbox.Recv() {
		switch msg.kind {
		case msgResolve:
			h, err := r.resolve(msg.key)
			msg.resolveReply <- resolveResult{handle: h, err: err}
		case msgLookup:
			h, ok := r.workers[msg.key]
			if !ok || !h.Alive() {
				h = nil
			}
			msg.resolveReply <- resolveResult{handle: h}
		case msgExit:
			r.handleExit(msg.key, msg.exit)
		case msgKeys:
			msg.keysReply <- r.keys()
		case msgStats:
			stats := r.stats
			stats.Active = len(r.workers)
			msg.statsReply <- stats
		case msgShutdown:
			r.beginShutdown(msg.errReply)
		}

		if r.closing && len(r.workers) == 0 {
			for _, reply := range r.shutdown {
				reply <- nil
			}
			log.Infof("registry stopped")
			return nil
		}
	}
	return nil
}

// resolve returns the live worker of key or spawns a new one.
func (r *registryImpl) resolve(key string) (*worker.Handle, error) {
	if r.closing {
		return nil, actor.NewError(actor.CodeStopped, "registry is shutting down", nil)
	}

	if h, ok := r.workers[key]; ok {
		if h.Alive() {
			return h, nil
		}
		// terminated, its exit notification is still queued and will not match the new worker
		r.forget(key)
	}

	if r.opts.MaxWorkers > 0 && len(r.workers) >= r.opts.MaxWorkers {
		r.pruneTerminated()
	}
	if r.opts.MaxWorkers > 0 && len(r.workers) >= r.opts.MaxWorkers {
		r.stats.SpawnFailures++
		spawnFailuresTotal.Inc()
		return nil, actor.NewError(actor.CodeSpawnFailed,
			fmt.Sprintf("cannot spawn worker for %q: limit of %d workers reached", key, r.opts.MaxWorkers), nil)
	}

	h, err := worker.Spawn(key, r.store, r.opts.Worker, func(exit actor.Exit) {
		r.mailbox.Send(&message{kind: msgExit, key: key, exit: exit})
	})
	if err != nil {
		r.stats.SpawnFailures++
		spawnFailuresTotal.Inc()
		return nil, err
	}

	r.workers[key] = h
	activeWorkers.Add(1)
	r.stats.Spawned++
	spawnedTotal.Inc()
	log.Debugf("spawned worker %s for %q", h.ID(), key)
	return h, nil
}

func (r *registryImpl) handleExit(key string, exit actor.Exit) {
	if exit.Kind == actor.ExitFailed {
		r.stats.ExitedFailed++
		exitedFailedTotal.Inc()
	} else {
		r.stats.ExitedNormal++
		exitedNormalTotal.Inc()
	}

	h, ok := r.workers[key]
	if !ok || h.ID() != exit.ID {
		log.Debugf("ignoring exit of stale worker %s for %q", exit.ID, key)
		return
	}
	r.forget(key)
	if exit.Kind == actor.ExitFailed {
		log.Infof("removed failed worker for %q: %v", key, exit.Err)
	}
}

// pruneTerminated drops the mappings of workers that already exited but whose exit
// notification is still queued. handleExit ignores those notifications later.
func (r *registryImpl) pruneTerminated() {
	for key, h := range r.workers {
		if !h.Alive() {
			r.forget(key)
		}
	}
}

func (r *registryImpl) forget(key string) {
	delete(r.workers, key)
	activeWorkers.Add(-1)
}

func (r *registryImpl) keys() []string {
	keys := make([]string, 0, len(r.workers))
	for key, h := range r.workers {
		if h.Alive() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (r *registryImpl) beginShutdown(reply chan<- error) {
	r.shutdown = append(r.shutdown, reply)
	if r.closing {
		return
	}
	r.closing = true
	log.Infof("stopping %d workers", len(r.workers))
	for key, h := range r.workers {
		if err := h.Stop(); err != nil {
			// already terminated, the exit notification was not processed yet
			r.forget(key)
		}
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see registry/interface.go)
// --------------------------------------------------------------------------

func (r *registryImpl) call(ctx context.Context, msg *message) (resolveResult, error) {
	return actor.Call(ctx, r.opts.CallTimeout, r.proc, func(reply chan<- resolveResult) bool {
		msg.resolveReply = reply
		return r.mailbox.Send(msg)
	})
}

func (r *registryImpl) Resolve(ctx context.Context, key string) (*worker.Handle, error) {
	if err := store.ValidateKey(key); err != nil {
		return nil, actor.NewError(actor.CodeInvalidArgument, "cannot resolve worker", err)
	}
	res, err := r.call(ctx, &message{kind: msgResolve, key: key})
	if err != nil {
		return nil, err
	}
	return res.handle, res.err
}

func (r *registryImpl) Lookup(ctx context.Context, key string) (*worker.Handle, bool, error) {
	res, err := r.call(ctx, &message{kind: msgLookup, key: key})
	if err != nil {
		return nil, false, err
	}
	return res.handle, res.handle != nil, nil
}

func (r *registryImpl) Keys(ctx context.Context) ([]string, error) {
	return actor.Call(ctx, r.opts.CallTimeout, r.proc, func(reply chan<- []string) bool {
		return r.mailbox.Send(&message{kind: msgKeys, keysReply: reply})
	})
}

func (r *registryImpl) Stop(ctx context.Context, key string) error {
	h, ok, err := r.Lookup(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := h.Stop(); err != nil {
		return nil // terminated in the meantime
	}
	select {
	case <-h.Done():
		return nil
	case <-ctx.Done():
		return actor.NewError(actor.CodeCanceled, fmt.Sprintf("waiting for worker %q to stop", key), ctx.Err())
	}
}

func (r *registryImpl) Stats(ctx context.Context) (Stats, error) {
	return actor.Call(ctx, r.opts.CallTimeout, r.proc, func(reply chan<- Stats) bool {
		return r.mailbox.Send(&message{kind: msgStats, statsReply: reply})
	})
}

func (r *registryImpl) Shutdown(ctx context.Context) error {
	// only ctx bounds the shutdown, workers may need a while to drain their mailboxes
	res, err := actor.Call(ctx, 0, r.proc, func(reply chan<- error) bool {
		return r.mailbox.Send(&message{kind: msgShutdown, errReply: reply})
	})
	if err != nil {
		return err
	}
	return res
}
