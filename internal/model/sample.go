package model

import "time"

// Axis identifies one of the three accelerometer axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Gravity is standard gravity in m/s², what a resting phone reads on the
// vertical axis.
const Gravity = 9.80665

// Axes lists every axis in display order.
var Axes = [...]Axis{AxisX, AxisY, AxisZ}

// String returns the upper-case axis label, e.g. "X".
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// Sample is a single timestamped accelerometer reading.
// Timestamp comes from time.Now(), so Sub between two samples uses the
// monotonic clock reading rather than wall-clock time.
type Sample struct {
	X, Y, Z   float64
	Timestamp time.Time
}

// Value returns the reading for the given axis. Unknown axes read as 0.
func (s Sample) Value(a Axis) float64 {
	switch a {
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	case AxisZ:
		return s.Z
	default:
		return 0
	}
}
