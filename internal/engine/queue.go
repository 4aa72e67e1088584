package engine

import (
	"container/heap"

	"github.com/roach88/combatlens/internal/ir"
)

// pendingQueue is the min-heap of fabricated events not yet dispatched,
// ordered by dispatch key.
type pendingQueue struct {
	items pendingHeap
}

type pendingHeap []*ir.Event

func (h pendingHeap) Len() int           { return len(h) }
func (h pendingHeap) Less(i, j int) bool { return h[i].Key().Less(h[j].Key()) }
func (h pendingHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *pendingHeap) Push(x any) { *h = append(*h, x.(*ir.Event)) }

func (h *pendingHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return ev
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{items: make(pendingHeap, 0, 16)}
}

// Push schedules ev. Its key must already be set.
func (q *pendingQueue) Push(ev *ir.Event) {
	heap.Push(&q.items, ev)
}

// Peek returns the next event without removing it.
func (q *pendingQueue) Peek() (*ir.Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Pop removes and returns the next event.
func (q *pendingQueue) Pop() *ir.Event {
	return heap.Pop(&q.items).(*ir.Event)
}

// Len returns the number of pending events.
func (q *pendingQueue) Len() int { return len(q.items) }
