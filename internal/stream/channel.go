// Package stream carries samples from the ingress goroutines to the render
// loop. A channel is split into a Sender, shared by every request handler,
// and a single Receiver owned by the consumer.
package stream

import (
	"errors"
	"sync"

	"github.com/dm/motion-go/internal/model"
)

// ErrReceiverClosed is returned by Send once the receiving side is gone.
var ErrReceiverClosed = errors.New("stream: receiver closed")

// queue is an unbounded FIFO guarded by a mutex. It never blocks a producer.
type queue struct {
	mu     sync.Mutex
	data   []model.Sample
	closed bool
}

// Sender is the producing half of a channel. It is safe for concurrent use.
type Sender struct {
	q *queue
}

// Receiver is the consuming half of a channel. Only one goroutine may use it.
type Receiver struct {
	q *queue
}

// New creates an empty channel and returns its two halves.
func New() (*Sender, *Receiver) {
	q := &queue{}
	return &Sender{q: q}, &Receiver{q: q}
}

// Send appends s to the channel without blocking. Concurrent sends are
// serialized; each one lands exactly once.
func (s *Sender) Send(sample model.Sample) error {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if s.q.closed {
		return ErrReceiverClosed
	}
	s.q.data = append(s.q.data, sample)
	return nil
}

// Pending returns the number of samples not yet received.
func (s *Sender) Pending() int {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return len(s.q.data)
}

// TryReceiveAll removes and returns every pending sample in arrival order.
// It returns nil when nothing is pending and never waits.
func (r *Receiver) TryReceiveAll() []model.Sample {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if len(r.q.data) == 0 {
		return nil
	}
	out := r.q.data
	r.q.data = nil
	return out
}

// Close drops the receiving side. Pending samples are discarded and later
// sends fail with ErrReceiverClosed. Close is idempotent.
func (r *Receiver) Close() {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	r.q.closed = true
	r.q.data = nil
}
