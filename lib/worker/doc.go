/*
Package worker implements the per-key actor that owns one todo list.

A worker is started by the registry with Spawn. Its goroutine first loads the list
from the store and only then starts to process its mailbox, so every message sent to
a fresh worker observes the persisted state. Messages that arrive during the load
simply wait in the mailbox.

Operations (see Handle):

  - Post (cast): assigns the next id, updates the in-memory list and queues a full
    snapshot at the store without waiting for it.
  - Get (call): returns all entries of one date.
  - Flush (call): waits until every snapshot queued so far has been written and
    reports the error of the newest write, if it failed.
  - Crash (cast): makes the worker panic. Nothing is saved; the registry observes a
    failed exit and forgets the worker.
  - Stop (cast): terminates the worker normally.

The in-memory list is authoritative. A failed write is logged and remembered until a
later write succeeds; Flush and Status expose it.
*/
package worker
