// Package playback maps elapsed travel distance (or wall-clock time) to a
// segment index and intra-segment progress. An external scheduler queries
// the index each tick; lookups are pure reads over a prebuilt table and
// safe to call concurrently.
package playback

import (
	"sort"

	"gcodeview/pkg/config"
	"gcodeview/pkg/gcode"
	"gcodeview/pkg/kinematics"
)

// Location is the answer to one lookup: which segment, and how far into
// it. Progress is in [0,1]; rapids and zero-length segments always report
// 1, rendering as instantaneous for seek purposes.
type Location struct {
	Segment  int
	Progress float64
}

// Index is a prebuilt cumulative cut-distance table over a segment list.
// Rapids contribute zero distance; seeking through them is driven by the
// time or fixed-rate fallbacks instead.
type Index struct {
	segments      []gcode.Segment
	cumulative    []float64 // aligned 1:1 with segments
	totalDistance float64
	totalSeconds  float64
	fallbackRate  float64 // index units per second when no distance or time exists
}

// NewIndex builds the lookup table. The report may be nil when no
// estimate was run; fallbackRate values at or below zero select the
// default.
func NewIndex(segments []gcode.Segment, report *kinematics.Report, fallbackRate float64) *Index {
	idx := &Index{
		segments:     segments,
		cumulative:   make([]float64, len(segments)),
		fallbackRate: fallbackRate,
	}
	if idx.fallbackRate <= 0 {
		idx.fallbackRate = config.DefaultFallbackRate
	}
	if report != nil {
		idx.totalSeconds = report.TotalSeconds
	}

	sum := 0.0
	for i := range segments {
		if segments[i].Kind == gcode.Cut {
			sum += segments[i].Length()
		}
		idx.cumulative[i] = sum
	}
	idx.totalDistance = sum
	return idx
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	return len(idx.segments)
}

// TotalDistance returns the summed length of all cut segments.
func (idx *Index) TotalDistance() float64 {
	return idx.totalDistance
}

// Locate maps traveled cut distance to a segment position. When the file
// has no cut distance at all, elapsed seconds drive the lookup instead:
// proportionally over the estimated total when one exists, else at a
// fixed nominal rate scaled by the speed multiplier.
func (idx *Index) Locate(traveled, elapsed, speedMultiplier float64) Location {
	n := len(idx.segments)
	if n == 0 {
		return Location{}
	}

	if idx.totalDistance > 0 {
		return idx.locateByDistance(traveled)
	}
	if idx.totalSeconds > 0 {
		i := int((elapsed / idx.totalSeconds) * float64(n))
		return Location{Segment: clampIndex(i, n), Progress: 1}
	}
	i := int(elapsed * idx.fallbackRate * speedMultiplier)
	return Location{Segment: clampIndex(i, n), Progress: 1}
}

func (idx *Index) locateByDistance(traveled float64) Location {
	n := len(idx.segments)
	if traveled >= idx.totalDistance {
		return Location{Segment: n - 1, Progress: 1}
	}

	i := sort.SearchFloat64s(idx.cumulative, traveled)
	if i >= n {
		i = n - 1
	}

	prev := 0.0
	if i > 0 {
		prev = idx.cumulative[i-1]
	}
	span := idx.cumulative[i] - prev

	if idx.segments[i].Kind == gcode.Rapid || span == 0 {
		return Location{Segment: i, Progress: 1}
	}

	progress := (traveled - prev) / span
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	return Location{Segment: i, Progress: progress}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
