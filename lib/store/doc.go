// Package store defines IStore, the persistence tier of dTodo: the single component
// that reads and writes todo list snapshots.
//
// Key Components:
//
//   - IStore Interface: Get (request/reply), Put (fire-and-forget full overwrite with an
//     optional acknowledgement callback), Flush, Info and Close.
//
//   - Error System: Error carries a RetCode, so callers can tell a corrupt snapshot
//     (RetCCorruptSnapshot) from an I/O failure (RetCInternalError) or an invalid key
//     (RetCInvalidKey). Use errors.Is with the Err* sentinels.
//
//   - DBFactory: creates the db.SnapshotDB the store writes to, which decouples the
//     store from the concrete engine (file, memory, sqlite).
//
// Implementations:
//
//   - Local Store (lstore): an actor owning the database; all operations of the
//     process are serialized through its mailbox.
//     Available in the "github.com/ValentinKolb/dTodo/lib/store/lstore" package.
package store
