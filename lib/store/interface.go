package store

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dTodo/lib/db"
	"github.com/ValentinKolb/dTodo/lib/list"
	"github.com/ValentinKolb/dTodo/lib/util"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates the database used by the store.
// This is used to abstract the creation of the database from the store implementation.
type DBFactory func() (db.SnapshotDB, error)

// IStore serializes all persistence of todo lists. Get is a request/reply call,
// Put is fire-and-forget: it returns as soon as the write is queued.
type IStore interface {
	// Get returns the persisted list of key. loaded is false if no snapshot exists
	// (or a corrupt one was quarantined).
	Get(ctx context.Context, key string) (l list.List, loaded bool, err error)
	// Put queues a full overwrite of key's snapshot with l. The store takes ownership of l.
	// ack, if not nil, is called from the store goroutine with the result of the write
	// and must not block.
	Put(key string, l list.List, ack func(err error)) (err error)
	// Flush returns once every message queued before it has been processed.
	Flush(ctx context.Context) (err error)
	// Info returns counters and statistics of the store and its database.
	Info(ctx context.Context) (info Info, err error)
	// Close processes all queued messages, stops the store and closes the database.
	Close(ctx context.Context) (err error)
}

// Info describes the state of a store.
type Info struct {
	DB          db.DatabaseInfo  `json:"db"`
	Reads       uint64           `json:"reads"`
	Writes      uint64           `json:"writes"`
	WriteErrors uint64           `json:"write_errors"`
	Quarantined uint64           `json:"quarantined"`
	Snapshots   util.SizeSummary `json:"snapshots"`
}

// ValidateKey rejects keys that can not be stored.
func ValidateKey(key string) error {
	if key == "" {
		return NewError(RetCInvalidKey, "key must not be empty")
	}
	return nil
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Command executed successfully.
	RetCInternalError                  // 1: Command failed due to an internal (I/O) error.
	RetCCorruptSnapshot                // 2: A snapshot exists but can not be decoded.
	RetCInvalidKey                     // 3: The key can not be stored.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCCorruptSnapshot:
		return "CorruptSnapshot"
	case RetCInvalidKey:
		return "InvalidKey"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrInternal        = NewError(RetCInternalError, "internal error")
	ErrCorruptSnapshot = NewError(RetCCorruptSnapshot, "corrupt snapshot")
	ErrInvalidKey      = NewError(RetCInvalidKey, "invalid key")
)
