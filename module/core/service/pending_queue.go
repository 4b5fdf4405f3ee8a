package service

import (
	"context"
	"sync"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

type pendingMetrics interface {
	SetPendingWrites(n int)
	IncPendingDropped()
}

// PendingWriteQueue buffers coordinates whose write failed. It is FIFO and
// unbounded unless maxSize > 0, in which case the oldest entry is evicted to
// make room.
type PendingWriteQueue struct {
	mu      sync.Mutex
	items   []domain.Coordinate
	maxSize int
	metrics pendingMetrics
}

func NewPendingWriteQueue(maxSize int, metrics pendingMetrics) *PendingWriteQueue {
	if maxSize < 0 {
		maxSize = 0
	}
	return &PendingWriteQueue{maxSize: maxSize, metrics: metrics}
}

func (q *PendingWriteQueue) Enqueue(c domain.Coordinate) {
	q.mu.Lock()
	dropped := 0
	for q.maxSize > 0 && len(q.items) >= q.maxSize {
		q.items = q.items[1:]
		dropped++
	}
	q.items = append(q.items, c)
	n := len(q.items)
	q.mu.Unlock()

	q.report(n, dropped)
}

func (q *PendingWriteQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain replays queued coordinates through persist, oldest first. It stops at
// the first failure, puts that item back at the head and returns the error.
// It also stops when ctx is done. The count of replayed items is returned in
// every case.
func (q *PendingWriteQueue) Drain(ctx context.Context, persist func(context.Context, *domain.Coordinate) error) (int, error) {
	replayed := 0
	for {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}

		c, ok := q.pop()
		if !ok {
			return replayed, nil
		}

		if err := persist(ctx, &c); err != nil {
			q.pushFront(c)
			return replayed, err
		}
		replayed++
	}
}

func (q *PendingWriteQueue) pop() (domain.Coordinate, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return domain.Coordinate{}, false
	}
	c := q.items[0]
	q.items[0] = domain.Coordinate{}
	q.items = q.items[1:]
	n := len(q.items)
	q.mu.Unlock()

	q.report(n, 0)
	return c, true
}

func (q *PendingWriteQueue) pushFront(c domain.Coordinate) {
	q.mu.Lock()
	q.items = append([]domain.Coordinate{c}, q.items...)
	n := len(q.items)
	q.mu.Unlock()

	q.report(n, 0)
}

func (q *PendingWriteQueue) report(n, dropped int) {
	if q.metrics == nil {
		return
	}
	q.metrics.SetPendingWrites(n)
	for i := 0; i < dropped; i++ {
		q.metrics.IncPendingDropped()
	}
}
