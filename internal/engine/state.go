package engine

import (
	"math"
	"time"

	"github.com/dm/motion-go/internal/model"
)

// Point is one chart coordinate: seconds since the window origin and a reading.
type Point struct {
	T float64
	V float64
}

// State is everything the draw routine needs, derived from a History on
// every frame. It is never stored between frames.
type State struct {
	Latest   model.Sample
	Origin   time.Time // timestamp of the oldest retained sample
	Series   [len(model.Axes)][]Point
	Span     float64 // seconds between the oldest and newest sample
	Min, Max float64 // value bounds across all axes; zero when empty
	Count    int
	Capacity int
	Rate     float64       // samples per second across the window
	Age      time.Duration // time since the latest sample; zero when empty
}

// Empty reports whether no sample has been retained yet.
func (s State) Empty() bool {
	return s.Count == 0
}

// Derive computes the dashboard state from h. now stamps the empty-buffer
// sentinel and anchors Age.
func Derive(h *model.History, now time.Time) State {
	st := State{
		Latest:   h.Latest(now),
		Origin:   now,
		Count:    h.Len(),
		Capacity: h.Cap(),
	}
	if oldest, ok := h.Oldest(); ok {
		st.Origin = oldest.Timestamp
	}
	if st.Count == 0 {
		return st
	}

	st.Min, st.Max = math.Inf(1), math.Inf(-1)
	for i := range st.Series {
		st.Series[i] = make([]Point, 0, st.Count)
	}
	for s := range h.All() {
		t := s.Timestamp.Sub(st.Origin).Seconds()
		for _, a := range model.Axes {
			v := s.Value(a)
			st.Series[a] = append(st.Series[a], Point{T: t, V: v})
			st.Min = math.Min(st.Min, v)
			st.Max = math.Max(st.Max, v)
		}
	}

	st.Span = st.Latest.Timestamp.Sub(st.Origin).Seconds()
	if st.Count > 1 && st.Span > 0 {
		st.Rate = float64(st.Count-1) / st.Span
	}
	if age := now.Sub(st.Latest.Timestamp); age > 0 {
		st.Age = age
	}
	return st
}
