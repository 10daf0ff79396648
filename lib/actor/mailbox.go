package actor

import "github.com/ValentinKolb/dTodo/lib/util"

// Mailbox is the unbounded inbox of one actor.
// Any goroutine may Send, only the owning actor reads Recv.
type Mailbox[M any] struct {
	q *util.LockFreeMPSC[M]
}

// NewMailbox creates an open mailbox.
func NewMailbox[M any]() *Mailbox[M] {
	return &Mailbox[M]{q: util.NewLockFreeMPSC[M]()}
}

// Send enqueues msg without blocking. It returns false if the mailbox is closed.
func (m *Mailbox[M]) Send(msg *M) bool {
	return m.q.Push(msg)
}

// Recv returns the channel the owning actor reads its messages from.
func (m *Mailbox[M]) Recv() <-chan *M {
	return m.q.Recv()
}

// Len returns the approximate number of queued messages. O(n), for diagnostics only.
func (m *Mailbox[M]) Len() int {
	return m.q.Len()
}

// Close stops accepting messages. It must only be called by the owner after it
// stopped reading Recv. Messages still queued are passed to reject (if not nil)
// from a separate goroutine.
func (m *Mailbox[M]) Close(reject func(*M)) {
	m.q.Close()
	go func() {
		for msg := range m.q.Recv() {
			if reject != nil {
				reject(msg)
			}
		}
	}()
}
