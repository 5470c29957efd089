// Package gcode interprets a line-oriented G-code subset into typed motion
// segments. A streaming modal-state machine converts text lines into rapid
// and cut segments (with adaptive circular-arc tessellation), tracks a tool
// registry built from comment conventions, and maintains a running bounding
// box over all emitted segment endpoints.
package gcode

import "math"

// Position is a 3D machine coordinate. Values are copied, never shared,
// between the modal state and emitted segments.
type Position struct {
	X, Y, Z float64
}

// Sub returns the componentwise difference p - o.
func (p Position) Sub(o Position) Position {
	return Position{p.X - o.X, p.Y - o.Y, p.Z - o.Z}
}

// Distance returns the Euclidean distance to o.
func (p Position) Distance(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// IsFinite reports whether all three coordinates are finite numbers.
func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// SegmentKind distinguishes rapid positioning moves from cutting moves.
type SegmentKind int

const (
	// Rapid is a G0 positioning move.
	Rapid SegmentKind = iota
	// Cut is a G1/G2/G3 feed move.
	Cut
)

// String returns the string representation of the segment kind.
func (k SegmentKind) String() string {
	if k == Rapid {
		return "rapid"
	}
	return "cut"
}

// ToolChange marks a pending tool change consumed by the next segment.
type ToolChange int

const (
	// NoToolChange means no tool change is pending.
	NoToolChange ToolChange = iota
	// ManualToolChange is inferred from an M0 stop with a "tool" comment.
	ManualToolChange
	// AutomaticToolChange is set by M6.
	AutomaticToolChange
)

// Segment is one atomic motion between two points. Segments are immutable
// once appended to a parse result.
type Segment struct {
	Kind       SegmentKind
	Start      Position
	End        Position
	FeedRate   float64 // mm/min, the modal feed at emission time
	Tool       int
	ToolChange ToolChange
	SourceLine int
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Bounds is a running axis-aligned bounding box over segment endpoints.
type Bounds struct {
	Min, Max Position
	seen     bool
}

// NewBounds returns an empty Bounds.
func NewBounds() Bounds {
	return Bounds{
		Min: Position{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		Max: Position{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
}

// Extend folds a point into the bounds. Non-finite points are rejected
// without modifying the bounds; Extend reports whether the point was folded.
func (b *Bounds) Extend(p Position) bool {
	if !p.IsFinite() {
		return false
	}
	b.Min.X = math.Min(b.Min.X, p.X)
	b.Min.Y = math.Min(b.Min.Y, p.Y)
	b.Min.Z = math.Min(b.Min.Z, p.Z)
	b.Max.X = math.Max(b.Max.X, p.X)
	b.Max.Y = math.Max(b.Max.Y, p.Y)
	b.Max.Z = math.Max(b.Max.Z, p.Z)
	b.seen = true
	return true
}

// IsEmpty reports whether no point has been folded in.
func (b *Bounds) IsEmpty() bool {
	return !b.seen
}

// Size returns the dimensions of the bounds, or zero if empty.
func (b *Bounds) Size() Position {
	if b.IsEmpty() {
		return Position{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the center point of the bounds, or zero if empty.
func (b *Bounds) Center() Position {
	if b.IsEmpty() {
		return Position{}
	}
	return Position{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
		Z: (b.Min.Z + b.Max.Z) / 2,
	}
}
