package run

import (
	"context"
	"sync"
)

// BatchWriter writes one batch of waypoints durably. The store does not
// guarantee idempotency, so the buffer never submits the same batch twice
// concurrently.
type BatchWriter interface {
	InsertWaypoints(ctx context.Context, batch []Waypoint) error
}

// Buffer stages accepted waypoints for durable writes. A flush atomically
// swaps out the pending queue and writes it as one batch; on failure the
// batch is prepended back ahead of anything staged since, so order is
// preserved across retries and no accepted waypoint is ever dropped.
type Buffer struct {
	mu      sync.Mutex
	pending []Waypoint

	flushMu sync.Mutex
	writer  BatchWriter
}

func NewBuffer(writer BatchWriter) *Buffer {
	return &Buffer{writer: writer}
}

func (b *Buffer) Enqueue(wp Waypoint) {
	b.mu.Lock()
	b.pending = append(b.pending, wp)
	b.mu.Unlock()
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Pending returns a copy of the staged queue in order.
func (b *Buffer) Pending() []Waypoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Waypoint, len(b.pending))
	copy(out, b.pending)
	return out
}

// Flush writes everything currently staged as one batch. Flushes are
// serialized; a concurrent caller waits rather than interleaving writes.
// An empty queue is a no-op.
func (b *Buffer) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := b.writer.InsertWaypoints(ctx, batch); err != nil {
		b.mu.Lock()
		b.pending = append(batch, b.pending...)
		b.mu.Unlock()
		return err
	}
	return nil
}
