package gcode

// Units tracks the G20/G21 selection. Units are recorded but coordinate
// values are never converted; conversion is a consumer concern.
type Units int

const (
	// Millimeters is the G21 (default) unit mode.
	Millimeters Units = iota
	// Inches is the G20 unit mode.
	Inches
)

// PositionMode selects absolute (G90) or relative (G91) coordinates.
type PositionMode int

const (
	// Absolute positioning (G90, default).
	Absolute PositionMode = iota
	// Relative positioning (G91).
	Relative
)

// Plane selects the arc plane (G17/G18/G19).
type Plane int

const (
	// PlaneXY is the G17 (default) plane.
	PlaneXY Plane = iota
	// PlaneZX is the G18 plane.
	PlaneZX
	// PlaneYZ is the G19 plane.
	PlaneYZ
)

// String returns the plane name.
func (p Plane) String() string {
	switch p {
	case PlaneZX:
		return "ZX"
	case PlaneYZ:
		return "YZ"
	default:
		return "XY"
	}
}

// State is the modal interpreter state that persists across lines until
// explicitly changed. It is owned by a single Parser and fully reset
// before each parse.
type State struct {
	Position      Position
	Units         Units
	PositionMode  PositionMode
	Plane         Plane
	FeedRate      float64 // mm/min
	Tool          int
	PendingChange ToolChange
}

// Reset restores the state to its parse-start defaults.
func (s *State) Reset() {
	*s = State{}
}

// takeChange consumes the pending tool change marker. The marker is
// transferred to exactly one segment, the first emitted after it was set.
func (s *State) takeChange() ToolChange {
	c := s.PendingChange
	s.PendingChange = NoToolChange
	return c
}
