package worker

import (
	"context"
	"time"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/google/uuid"
)

// Handle is the address of one worker incarnation. It is safe for concurrent use
// and stays valid after the worker terminated; calls then fail with actor.ErrStopped.
type Handle struct {
	key     string
	proc    *actor.Process
	mailbox *actor.Mailbox[message]
	timeout time.Duration
}

// ID returns the incarnation id. A worker spawned again for the same key gets a new id.
func (h *Handle) ID() uuid.UUID {
	return h.proc.ID()
}

// Key returns the key the worker owns.
func (h *Handle) Key() string {
	return h.key
}

// Done is closed when the worker terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.proc.Done()
}

// Alive reports whether the worker has not terminated yet.
func (h *Handle) Alive() bool {
	return h.proc.Alive()
}

// Exit returns how the worker terminated; ok is false while it is running.
func (h *Handle) Exit() (exit actor.Exit, ok bool) {
	return h.proc.Exit()
}

func (h *Handle) cast(msg *message) error {
	if !h.mailbox.Send(msg) {
		return actor.Stopped(h.proc)
	}
	return nil
}

// Post appends e to the worker's list. It returns once the message is queued;
// a nil error is no delivery guarantee.
func (h *Handle) Post(e list.Entry) error {
	if e.Date.IsZero() {
		return actor.NewError(actor.CodeInvalidArgument, "entry without date", nil)
	}
	return h.cast(&message{kind: msgPost, entry: e})
}

// Get returns all entries dated date, in unspecified order.
func (h *Handle) Get(ctx context.Context, date list.Date) ([]list.Entry, error) {
	return actor.Call(ctx, h.timeout, h.proc, func(reply chan<- []list.Entry) bool {
		return h.mailbox.Send(&message{kind: msgGet, date: date, entriesReply: reply})
	})
}

// Flush waits until every entry posted before the call has been handed to the
// database and returns the error of the newest write if it failed.
func (h *Handle) Flush(ctx context.Context) error {
	res, err := actor.Call(ctx, h.timeout, h.proc, func(reply chan<- error) bool {
		return h.mailbox.Send(&message{kind: msgFlush, errReply: reply})
	})
	if err != nil {
		return err
	}
	return res
}

// Status returns the worker's bookkeeping.
func (h *Handle) Status(ctx context.Context) (Status, error) {
	return actor.Call(ctx, h.timeout, h.proc, func(reply chan<- Status) bool {
		return h.mailbox.Send(&message{kind: msgStatus, statusReply: reply})
	})
}

// Crash makes the worker fail deliberately once it processes the message.
func (h *Handle) Crash() error {
	return h.cast(&message{kind: msgCrash})
}

// Stop terminates the worker normally once it processes the message.
func (h *Handle) Stop() error {
	return h.cast(&message{kind: msgStop})
}
