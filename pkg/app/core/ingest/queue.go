package ingest

import (
	"errors"
	"sync"

	"github.com/uhyunpark/ome/pkg/app/core/orderbook"
)

var ErrClosed = errors.New("ingest: queue closed")

// Queue hands parsed orders from connection handlers to the matching worker.
// It is unbounded; Pop blocks until an order is available or the queue is
// closed and drained.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []orderbook.Order
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends o and wakes one waiting consumer.
func (q *Queue) Push(o orderbook.Order) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, o)
	q.mu.Unlock()
	q.cond.Signal()
	return nil
}

// Pop removes the oldest order. ok is false once the queue is closed and empty.
func (q *Queue) Pop() (o orderbook.Order, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return orderbook.Order{}, false
	}

	o = q.items[0]
	q.items[0] = orderbook.Order{}
	q.items = q.items[1:]
	return o, true
}

// Close rejects further pushes. Orders already queued are still handed out.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len returns pending orders (for status/metrics).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
