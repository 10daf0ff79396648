package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Features and guarantees of LockFreeMPSC:
//
//   - Lock-free writes: producers only use atomic operations to append
//   - Unbounded size: Push never blocks and never rejects an item while the queue is open
//   - No silent loss: an item Push accepted is delivered, even when Close runs concurrently
//   - Single consumer: exactly one goroutine reads from Recv()
//   - Per-producer order: items pushed by one goroutine are received in push order.
//     Items of different producers interleave in the order their appends complete.

// node represents a single element in the queue
type node[T interface{}] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// LockFreeMPSC is a lock-free multi-producer single-consumer queue.
// It is a linked list of nodes; producers append with CAS on the tail,
// a background goroutine moves the head and forwards the values to Recv().
type LockFreeMPSC[T interface{}] struct {
	head     atomic.Pointer[node[T]]
	tail     atomic.Pointer[node[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool
	// producers inside Push; the consumer finishes only when none is left
	pushing atomic.Int64

	// mu only guards the consumer's sleep, see wake()
	mu   sync.Mutex
	cond *sync.Cond
}

// NewLockFreeMPSC creates a new queue and starts its forwarding goroutine.
func NewLockFreeMPSC[T interface{}]() *LockFreeMPSC[T] {
	sentinel := &node[T]{}

	q := &LockFreeMPSC[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push adds an item to the queue.
// Returns true if the item was added, or false if the value is nil or the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value *T) bool {
	if value == nil {
		return false
	}

	q.pushing.Add(1)
	if q.closed.Load() {
		q.pushing.Add(-1)
		q.wake()
		return false
	}

	q.append(&node[T]{value: value})
	q.pushing.Add(-1)
	q.wake()
	return true
}

// append links newNode behind the current tail.
func (q *LockFreeMPSC[T]) append(newNode *node[T]) {
	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// may fail if another producer already helped, tail moves on either way
				q.tail.CompareAndSwap(tailNode, newNode)
				return
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		// exponential backoff under contention
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// wake signals the consumer while holding mu. Signalling without the lock could
// fire between the consumer's emptiness check and its Wait and get lost.
func (q *LockFreeMPSC[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// consume forwards items from the linked list to the output channel.
func (q *LockFreeMPSC[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			value := next.value
			q.head.Store(next)
			q.out <- value

			// help the gc, the node is now the sentinel
			next.value = nil
		}

		// closed is read before pushing: a producer that got past its closed check
		// is either counted here or its item is already linked
		if !hasItems && q.closed.Load() && q.pushing.Load() == 0 && q.head.Load().next.Load() == nil {
			return
		}

		if !hasItems {
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && (!q.closed.Load() || q.pushing.Load() > 0) {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns the channel the single consumer reads from.
// The channel is closed after Close once all queued items were delivered.
func (q *LockFreeMPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close closes the queue, preventing further writes.
// Items already in the queue are still delivered, so the consumer must keep
// reading Recv() until it is closed.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// IsClosed returns true if the queue is closed.
func (q *LockFreeMPSC[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns an approximate count of the number of items in the queue.
// This is O(n) and should only be used for debugging.
func (q *LockFreeMPSC[T]) Len() int {
	count := 0
	current := q.head.Load()
	for {
		next := current.next.Load()
		if next == nil {
			break
		}
		count++
		current = next
	}
	return count
}
