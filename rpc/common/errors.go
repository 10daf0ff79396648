package common

import (
	"errors"

	"github.com/ValentinKolb/dTodo/lib/actor"
	"github.com/ValentinKolb/dTodo/lib/store"
)

// ErrorCode is the category of an error transported in a Message, so a remote
// caller can react to it (e.g. re-resolve and replay after ErrCStopped).
type ErrorCode uint8

const (
	ErrCNone            ErrorCode = iota // 0: no error
	ErrCInternal                         // 1: unclassified failure
	ErrCInvalidArgument                  // 2: malformed request
	ErrCTimeout                          // 3: no reply within the call timeout
	ErrCCanceled                         // 4: the request was canceled
	ErrCStopped                          // 5: the worker terminated before replying
	ErrCSpawnFailed                      // 6: no worker could be created
	ErrCPersistence                      // 7: the newest write of the list failed
	ErrCCorruptSnapshot                  // 8: the persisted list can not be decoded
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCNone:
		return "none"
	case ErrCInvalidArgument:
		return "invalid_argument"
	case ErrCTimeout:
		return "timeout"
	case ErrCCanceled:
		return "canceled"
	case ErrCStopped:
		return "stopped"
	case ErrCSpawnFailed:
		return "spawn_failed"
	case ErrCPersistence:
		return "persistence"
	case ErrCCorruptSnapshot:
		return "corrupt_snapshot"
	default:
		return "internal"
	}
}

// ErrorCodeOf classifies err. Actor errors take precedence over the store errors they wrap.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCNone
	}
	switch actor.CodeOf(err) {
	case actor.CodeInvalidArgument:
		return ErrCInvalidArgument
	case actor.CodeTimeout:
		return ErrCTimeout
	case actor.CodeCanceled:
		return ErrCCanceled
	case actor.CodeStopped:
		return ErrCStopped
	case actor.CodeSpawnFailed:
		return ErrCSpawnFailed
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case store.RetCInvalidKey:
			return ErrCInvalidArgument
		case store.RetCCorruptSnapshot:
			return ErrCCorruptSnapshot
		case store.RetCInternalError:
			return ErrCPersistence
		}
	}
	return ErrCInternal
}

// ErrorFromMessage rebuilds a typed error from a response, nil if the response carries none.
// The result matches the same errors.Is sentinels as the error on the server side.
func ErrorFromMessage(msg *Message) error {
	if msg.Err == "" && msg.Code == ErrCNone {
		return nil
	}
	switch msg.Code {
	case ErrCInvalidArgument:
		return actor.NewError(actor.CodeInvalidArgument, msg.Err, nil)
	case ErrCTimeout:
		return actor.NewError(actor.CodeTimeout, msg.Err, nil)
	case ErrCCanceled:
		return actor.NewError(actor.CodeCanceled, msg.Err, nil)
	case ErrCStopped:
		return actor.NewError(actor.CodeStopped, msg.Err, nil)
	case ErrCSpawnFailed:
		return actor.NewError(actor.CodeSpawnFailed, msg.Err, nil)
	case ErrCPersistence:
		return store.NewError(store.RetCInternalError, msg.Err)
	case ErrCCorruptSnapshot:
		return store.NewError(store.RetCCorruptSnapshot, msg.Err)
	default:
		return errors.New(msg.Err)
	}
}
