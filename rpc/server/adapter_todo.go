package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/ValentinKolb/dTodo/lib/registry"
	"github.com/ValentinKolb/dTodo/lib/store"
	"github.com/ValentinKolb/dTodo/lib/worker"
	"github.com/ValentinKolb/dTodo/rpc/common"
	"github.com/VictoriaMetrics/metrics"
)

// ServerStatus is the answer to a status request without key.
type ServerStatus struct {
	Registry registry.Stats `json:"registry"`
	Store    store.Info     `json:"store"`
}

// NewTodoServerAdapter creates an adapter that maps messages onto the workers of reg.
// callTimeout bounds each request in addition to the caller's context, zero disables it.
func NewTodoServerAdapter(reg registry.IRegistry, s store.IStore, callTimeout time.Duration) *TodoServerAdapter {
	a := &TodoServerAdapter{registry: reg, store: s}
	a.SetCallTimeout(callTimeout)
	return a
}

// TodoServerAdapter implements IRPCServerAdapter for the todo operations.
type TodoServerAdapter struct {
	registry    registry.IRegistry
	store       store.IStore
	callTimeout atomic.Int64
}

// SetCallTimeout changes the per request bound. It is safe to call while serving.
func (a *TodoServerAdapter) SetCallTimeout(d time.Duration) {
	a.callTimeout.Store(int64(d))
}

func (a *TodoServerAdapter) Handle(ctx context.Context, req *common.Message) (resp *common.Message) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`dtodo_rpc_requests_total{type=%q}`, req.MsgType)).Inc()

	if d := time.Duration(a.callTimeout.Load()); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	defer func() {
		if resp.Code != common.ErrCNone {
			metrics.GetOrCreateCounter(fmt.Sprintf(`dtodo_rpc_errors_total{code=%q}`, resp.Code)).Inc()
			Logger.Debugf("%s %q failed: %s", req.MsgType, req.Key, resp.Err)
		}
	}()

	switch req.MsgType {
	case common.MsgTTodoPost, common.MsgTTodoGet, common.MsgTTodoFlush, common.MsgTTodoCrash, common.MsgTTodoStop:
		if err := store.ValidateKey(req.Key); err != nil {
			return common.NewErrorResponse(common.ErrorCodeOf(err), err.Error())
		}
	}

	switch req.MsgType {
	case common.MsgTTodoPost:
		date, err := parseDate(req.Date)
		if err != nil {
			return common.NewPostResponse(err)
		}
		entry := list.Entry{Date: date, Title: req.Title}
		err = a.withWorker(ctx, req.Key, func(h *worker.Handle) error {
			return h.Post(entry)
		})
		return common.NewPostResponse(err)

	case common.MsgTTodoGet:
		date, err := parseDate(req.Date)
		if err != nil {
			return common.NewGetResponse(nil, err)
		}
		var entries []list.Entry
		err = a.withWorker(ctx, req.Key, func(h *worker.Handle) (err error) {
			entries, err = h.Get(ctx, date)
			return err
		})
		return common.NewGetResponse(toWireEntries(entries), err)

	case common.MsgTTodoFlush:
		// without a worker nothing is pending
		h, ok, err := a.registry.Lookup(ctx, req.Key)
		if err == nil && ok {
			err = h.Flush(ctx)
		}
		return common.NewFlushResponse(err)

	case common.MsgTTodoCrash:
		err := a.withWorker(ctx, req.Key, func(h *worker.Handle) error {
			return h.Crash()
		})
		return common.NewCrashResponse(err)

	case common.MsgTTodoStop:
		_, existed, err := a.registry.Lookup(ctx, req.Key)
		if err == nil && existed {
			err = a.registry.Stop(ctx, req.Key)
		}
		resp := common.NewStopResponse(err)
		resp.Ok = existed && err == nil
		return resp

	case common.MsgTTodoStatus:
		return a.status(ctx, req.Key)

	case common.MsgTTodoKeys:
		keys, err := a.registry.Keys(ctx)
		return common.NewKeysResponse(keys, err)

	default:
		return common.NewErrorResponse(common.ErrCInvalidArgument, fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// withWorker runs fn against the live worker of key. If the worker terminated
// before fn got through, it is resolved again and fn is replayed once.
func (a *TodoServerAdapter) withWorker(ctx context.Context, key string, fn func(h *worker.Handle) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var h *worker.Handle
		h, err = a.registry.Resolve(ctx, key)
		if err != nil {
			return err
		}
		if err = fn(h); !errors.Is(err, actor.ErrStopped) {
			return err
		}
		Logger.Debugf("worker %q stopped during request, resolving again", key)
	}
	return err
}

func (a *TodoServerAdapter) status(ctx context.Context, key string) *common.Message {
	if key == "" {
		stats, err := a.registry.Stats(ctx)
		if err != nil {
			return common.NewStatusResponse(nil, err)
		}
		info, err := a.store.Info(ctx)
		if err != nil {
			return common.NewStatusResponse(nil, err)
		}
		resp := common.NewStatusResponse(ServerStatus{Registry: stats, Store: info}, nil)
		resp.Ok = true
		return resp
	}

	h, ok, err := a.registry.Lookup(ctx, key)
	if err != nil || !ok {
		return common.NewStatusResponse(nil, err)
	}
	st, err := h.Status(ctx)
	resp := common.NewStatusResponse(st, err)
	resp.Ok = err == nil
	return resp
}

func parseDate(s string) (list.Date, error) {
	date, err := list.ParseDate(s)
	if err != nil {
		return list.Date{}, actor.NewError(actor.CodeInvalidArgument, "invalid date", err)
	}
	return date, nil
}

func toWireEntries(entries []list.Entry) []common.Entry {
	if entries == nil {
		return nil
	}
	wire := make([]common.Entry, len(entries))
	for i, e := range entries {
		wire[i] = common.Entry{Date: e.Date.String(), Title: e.Title}
	}
	return wire
}
