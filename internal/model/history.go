package model

import (
	"iter"
	"time"
)

// DefaultHistoryCap is the number of samples retained when no capacity is given.
const DefaultHistoryCap = 100

// History is a fixed-size ring buffer of Samples.
// When the buffer is full, new pushes overwrite the oldest entry.
// It is not safe for concurrent use; the render loop owns it.
type History struct {
	buf  []Sample
	head int // index of the next write position
	size int // number of valid entries
}

// NewHistory creates a History with the given capacity.
// If capacity <= 0, DefaultHistoryCap (100) is used.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &History{
		buf: make([]Sample, capacity),
	}
}

// Push appends a new sample, overwriting the oldest if full.
func (h *History) Push(s Sample) {
	h.buf[h.head] = s
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of valid entries in the history.
func (h *History) Len() int {
	return h.size
}

// Cap returns the maximum number of entries the history retains.
func (h *History) Cap() int {
	return len(h.buf)
}

// start returns the buffer index of the oldest entry.
func (h *History) start() int {
	return (h.head - h.size + len(h.buf)) % len(h.buf)
}

// All returns an iterator over the retained samples, oldest first.
// The sequence is evaluated lazily and may be ranged over any number of times.
func (h *History) All() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		start := h.start()
		for i := 0; i < h.size; i++ {
			if !yield(h.buf[(start+i)%len(h.buf)]) {
				return
			}
		}
	}
}

// Oldest returns the oldest retained sample. ok is false when empty.
func (h *History) Oldest() (s Sample, ok bool) {
	if h.size == 0 {
		return Sample{}, false
	}
	return h.buf[h.start()], true
}

// Latest returns the most recently pushed sample. On an empty history it
// returns a zero reading stamped with now, so callers never need a nil check.
func (h *History) Latest(now time.Time) Sample {
	if h.size == 0 {
		return Sample{Timestamp: now}
	}
	return h.buf[(h.head-1+len(h.buf))%len(h.buf)]
}

// Values returns the readings for one axis in chronological order (oldest first).
func (h *History) Values(a Axis) []float64 {
	out := make([]float64, 0, h.size)
	for s := range h.All() {
		out = append(out, s.Value(a))
	}
	return out
}
