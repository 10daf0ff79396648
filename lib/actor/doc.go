/*
Package actor provides the small runtime the registry, the workers and the store are
built on: a goroutine with an identity (Process), an unbounded mailbox (Mailbox) and a
request/reply helper with a bounded timeout (Call).

Messaging Model:

  - Cast: Mailbox.Send never blocks and gives no delivery guarantee. Messages from one
    sender are processed in send order.
  - Call: a request carries a reply channel with capacity one, so the actor never blocks
    when answering. The caller waits for the reply, the target's exit, its own context
    or the call timeout, whichever happens first.

Supervision:

Spawn runs the actor body under recover. A nil return is a normal exit, an error or a
panic is a failed exit. The Exit record is published before Done() is closed and then
handed to the onExit hook, which is how the registry learns about terminated workers.

Errors:

All failures of the runtime are *Error values carrying a Code. Use errors.Is with the
sentinels (ErrTimeout, ErrStopped, ...) or CodeOf to classify them.
*/
package actor
