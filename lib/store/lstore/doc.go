// Package lstore implements store.IStore as a single actor: one goroutine owns the
// database and processes Get, Put, Flush, Info and Close messages from one mailbox in
// arrival order. All file (or database) I/O of the process therefore happens
// sequentially, and a Put submitted before a Get of the same key is always visible
// to that Get.
//
// Writes are fire-and-forget. A failed write is logged, counted and reported through
// the optional ack callback of Put; the store itself keeps running. Puts that are
// still queued when the store is closed are answered with actor.ErrStopped.
//
// Example:
//
//	database, _ := file.NewFileDB("./persist")
//	s := lstore.NewLocalStore(database, lstore.DefaultOptions())
//	defer s.Close(context.Background())
//
//	_ = s.Put("alice", l, nil)
//	l, loaded, err := s.Get(ctx, "alice")
package lstore
