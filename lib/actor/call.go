package actor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCallTimeout bounds calls when no other timeout is configured.
const DefaultCallTimeout = 5 * time.Second

// Call performs a request/reply exchange with target. send must enqueue a message
// carrying reply and return false if the message could not be enqueued.
//
// A timeout of zero leaves the bound to ctx. A caller giving up does not abort the
// work already queued at the target; a late reply is simply dropped.
func Call[R any](ctx context.Context, timeout time.Duration, target *Process, send func(reply chan<- R) bool) (R, error) {
	var zero R

	reply := make(chan R, 1)
	if !send(reply) {
		return zero, Stopped(target)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case r := <-reply:
		return r, nil
	case <-target.Done():
		// the reply may have been sent right before the exit
		select {
		case r := <-reply:
			return r, nil
		default:
		}
		return zero, Stopped(target)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, NewError(CodeTimeout, fmt.Sprintf("%s: request timed out after %v", target.Name(), timeout), ctx.Err())
		}
		return zero, NewError(CodeCanceled, fmt.Sprintf("%s: request canceled", target.Name()), ctx.Err())
	}
}

// Stopped returns the error for an unreachable target, carrying its exit error if known.
func Stopped(target *Process) *Error {
	exit, ok := target.Exit()
	if !ok {
		return NewError(CodeStopped, fmt.Sprintf("%s is stopping", target.Name()), nil)
	}
	return NewError(CodeStopped, fmt.Sprintf("%s exited %s", target.Name(), exit.Kind), exit.Err)
}
