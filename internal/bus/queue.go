package bus

import (
	"container/heap"
	"sync"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

// Queue is an unbounded, time-ordered event queue shared by any number of
// producers and one consumer. Events with equal timestamps pop in the order
// they were pushed.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   eventHeap
	seq     uint64
	stopped bool
}

// NewQueue allocates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push inserts an event and wakes one blocked consumer. Push never fails,
// including after Stop.
func (q *Queue) Push(e schema.Event) {
	if e == nil {
		return
	}
	q.mu.Lock()
	q.seq++
	heap.Push(&q.items, entry{event: e, seq: q.seq})
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an event is available or the queue is stopped.
// It returns false only when the queue is stopped and empty; callers must
// treat that as "no more work".
func (q *Queue) Pop() (schema.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(entry).event, true
}

// TryPop returns the earliest event without blocking. The stopped flag is
// not consulted.
func (q *Queue) TryPop() (schema.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(entry).event, true
}

// Empty is a point-in-time observation for diagnostics.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Size is a point-in-time observation for diagnostics.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stop marks the queue stopped and wakes every blocked consumer. Pending
// events are kept. Calling Stop more than once is harmless.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Stopped reports whether Stop has been called.
func (q *Queue) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

type entry struct {
	event schema.Event
	seq   uint64
}

// eventHeap is a min-heap on (timestamp, seq).
type eventHeap []entry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	return schema.Less(h[i].event, h[i].seq, h[j].event, h[j].seq)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*h = old[:n-1]
	return e
}
