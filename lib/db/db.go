package db

import "fmt"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplFile   Implementation = "file"
	ImplMemory Implementation = "memory"
	ImplSQLite Implementation = "sqlite"
)

// ParseImplementation validates a backend name as used in the configuration.
func ParseImplementation(name string) (Implementation, error) {
	switch impl := Implementation(name); impl {
	case ImplFile, ImplMemory, ImplSQLite:
		return impl, nil
	default:
		return "", fmt.Errorf("unknown backend %q: must be one of file, memory, sqlite", name)
	}
}

type DatabaseInfo struct {
	DbType      Implementation `json:"db_type"`
	Keys        int            `json:"keys"`
	SizeBytes   int64          `json:"size_bytes"`
	Quarantined int            `json:"quarantined"`
	Location    string         `json:"location,omitempty"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// SnapshotDB stores one opaque snapshot per key. It knows nothing about the
// content of a snapshot; encoding and validation happen in the store.
//
// Implementations are not required to be safe for concurrent use: the store
// serializes all access through its single goroutine.
type SnapshotDB interface {
	// Load returns the snapshot stored for key. loaded is false if there is none.
	// The returned slice is owned by the caller.
	Load(key string) (data []byte, loaded bool, err error)

	// Save replaces the snapshot of key in full. A failed Save must leave the
	// previous snapshot readable.
	Save(key string, data []byte) (err error)

	// Quarantine moves the snapshot of key out of the way so the next Load reports
	// it as absent. The data is kept for manual inspection.
	Quarantine(key string) (err error)

	// Keys returns the keys that currently have a snapshot, in no particular order.
	Keys() (keys []string, err error)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo, err error)

	// Close closes the database.
	Close() (err error)
}
