package gcode

import (
	"math"

	"gcodeview/pkg/errors"
)

// Arc tessellation segment count limits. Larger and longer arcs get more
// segments, between these bounds.
const (
	minArcSegments = 8
	maxArcSegments = 64
)

// arcMove handles G2 (clockwise) and G3 (counter-clockwise). The arc is
// approximated by straight cut segments in the active plane, with the
// out-of-plane axis interpolated linearly. The final position is the exact
// commanded end point so rounding does not compound across arcs.
func (p *Parser) arcMove(clockwise bool, lineNum int) {
	if !hasWord(p.words, 'I') && !hasWord(p.words, 'J') && !hasWord(p.words, 'K') {
		p.recover(errors.ArcOffsetError(lineNum))
		return
	}

	start := p.state.Position
	target := p.applyAxisWords(start)

	offsetI, _ := wordValue(p.words, 'I')
	offsetJ, _ := wordValue(p.words, 'J')
	offsetK, _ := wordValue(p.words, 'K')

	// Remap to a generic in-plane (u, v) pair plus the out-of-plane axis.
	var startU, startV, endU, endV, centerU, centerV float64
	switch p.state.Plane {
	case PlaneZX:
		startU, startV = start.Z, start.X
		endU, endV = target.Z, target.X
		centerU, centerV = start.Z+offsetK, start.X+offsetI
	case PlaneYZ:
		startU, startV = start.Y, start.Z
		endU, endV = target.Y, target.Z
		centerU, centerV = start.Y+offsetJ, start.Z+offsetK
	default: // PlaneXY
		startU, startV = start.X, start.Y
		endU, endV = target.X, target.Y
		centerU, centerV = start.X+offsetI, start.Y+offsetJ
	}

	radius := math.Hypot(startU-centerU, startV-centerV)
	startAngle := math.Atan2(startV-centerV, startU-centerU)
	endAngle := math.Atan2(endV-centerV, endU-centerU)

	// Force the sweep's sign to match the commanded direction.
	sweep := endAngle - startAngle
	if clockwise && sweep >= 0 {
		sweep -= 2 * math.Pi
	} else if !clockwise && sweep <= 0 {
		sweep += 2 * math.Pi
	}

	count := int(math.Floor(math.Sqrt(radius) * math.Abs(sweep) * 4))
	if count < minArcSegments {
		count = minArcSegments
	} else if count > maxArcSegments {
		count = maxArcSegments
	}

	startOut, endOut := outOfPlane(p.state.Plane, start), outOfPlane(p.state.Plane, target)

	prev := start
	for i := 1; i <= count; i++ {
		// The last vertex is the exact commanded end point, not its
		// trigonometric reconstruction, so rounding never compounds
		// across arcs.
		point := target
		if i < count {
			t := float64(i) / float64(count)
			angle := startAngle + sweep*t
			u := centerU + radius*math.Cos(angle)
			v := centerV + radius*math.Sin(angle)
			out := startOut + (endOut-startOut)*t
			point = planePoint(p.state.Plane, u, v, out)
		}
		p.emit(Segment{
			Kind:       Cut,
			Start:      prev,
			End:        point,
			FeedRate:   p.state.FeedRate,
			Tool:       p.state.Tool,
			ToolChange: p.state.takeChange(),
			SourceLine: lineNum,
		})
		prev = point
	}

	p.state.Position = target
}

// outOfPlane returns the coordinate of the axis not in the given plane.
func outOfPlane(plane Plane, p Position) float64 {
	switch plane {
	case PlaneZX:
		return p.Y
	case PlaneYZ:
		return p.X
	default:
		return p.Z
	}
}

// planePoint assembles a Position from in-plane (u, v) and the
// out-of-plane coordinate.
func planePoint(plane Plane, u, v, out float64) Position {
	switch plane {
	case PlaneZX:
		return Position{X: v, Y: out, Z: u}
	case PlaneYZ:
		return Position{X: out, Y: u, Z: v}
	default:
		return Position{X: u, Y: v, Z: out}
	}
}
