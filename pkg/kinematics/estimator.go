// Package kinematics estimates execution time for a motion segment list
// under per-axis machine limits. Each segment gets a trapezoidal velocity
// profile whose entry and exit speeds come from junction velocities with
// its neighbors, so a toolpath of many short collinear segments is not
// penalized with a full stop at every vertex.
package kinematics

import (
	"math"

	"gcodeview/pkg/config"
	"gcodeview/pkg/errors"
	"gcodeview/pkg/gcode"
	"gcodeview/pkg/log"
	"gcodeview/pkg/metrics"
)

const (
	// Axis displacements at or below this are treated as zero when
	// selecting limiting axes.
	axisEpsilon = 1e-3

	// Squared endpoint gap beyond which two segments do not share a
	// junction.
	junctionGapSq = 1e-6

	// Direction cosines above this count as collinear: full cornering
	// speed, no slowdown.
	collinearCos = 0.999

	// Feed assumed for cut segments that never saw an F word, mm/min.
	defaultFeedRate = 600
)

// Limits are the machine constraints the estimate runs under. Rates are
// mm/min, accelerations mm/s², tool change durations seconds. All values
// must be positive.
type Limits struct {
	RapidRate               [3]float64 // per-axis rapid ceiling, X/Y/Z
	Accel                   [3]float64 // per-axis acceleration, X/Y/Z
	ManualToolChangeTime    float64
	AutomaticToolChangeTime float64
}

// LimitsFromProfile converts a loaded machine profile into estimator
// limits.
func LimitsFromProfile(p config.MachineProfile) Limits {
	return Limits{
		RapidRate:               p.RapidRate,
		Accel:                   p.Accel,
		ManualToolChangeTime:    p.ManualToolChangeTime,
		AutomaticToolChangeTime: p.AutomaticToolChangeTime,
	}
}

// DefaultLimits returns the built-in machine constraints.
func DefaultLimits() Limits {
	return LimitsFromProfile(config.DefaultMachineProfile())
}

// Validate rejects non-positive limit values.
func (l Limits) Validate() error {
	for axis := 0; axis < 3; axis++ {
		if l.RapidRate[axis] <= 0 {
			return errors.EstimatorLimitsError("rapid rate")
		}
		if l.Accel[axis] <= 0 {
			return errors.EstimatorLimitsError("acceleration")
		}
	}
	if l.ManualToolChangeTime <= 0 || l.AutomaticToolChangeTime <= 0 {
		return errors.EstimatorLimitsError("tool change time")
	}
	return nil
}

// Report is the output of one estimate pass.
type Report struct {
	TotalSeconds   float64
	ToolSeconds    map[int]float64 // cut time per tool, overhead included
	SegmentSeconds []float64       // aligned 1:1 with the input segments
}

// Estimator computes time reports for segment lists under fixed limits.
// It holds no per-run state; one instance may serve many Estimate calls.
type Estimator struct {
	limits Limits
	logger *log.Logger
	stats  *metrics.ViewerMetrics
}

// NewEstimator validates the limits and returns an estimator.
func NewEstimator(limits Limits) (*Estimator, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{
		limits: limits,
		logger: log.GetLogger("kinematics"),
		stats:  metrics.Default(),
	}, nil
}

// Estimate walks the segments in order and accumulates per-segment,
// per-tool, and total time.
func (e *Estimator) Estimate(segments []gcode.Segment) *Report {
	report := &Report{
		ToolSeconds:    make(map[int]float64),
		SegmentSeconds: make([]float64, len(segments)),
	}

	// Target velocities are needed both for the segment itself and for
	// its neighbors' junction computations; compute them once up front.
	targets := make([]float64, len(segments))
	for i := range segments {
		targets[i] = e.targetVelocity(&segments[i])
	}

	for i := range segments {
		seg := &segments[i]

		// Tool change overhead is a step function on top of the move
		// time, never blended into the velocity profile.
		t := 0.0
		switch seg.ToolChange {
		case gcode.ManualToolChange:
			t += e.limits.ManualToolChangeTime
		case gcode.AutomaticToolChange:
			t += e.limits.AutomaticToolChangeTime
		}

		var entry, exit float64
		if i > 0 {
			entry = e.calculateJunctionVelocity(
				&segments[i-1], seg, targets[i-1]*60, targets[i]*60)
		}
		if i+1 < len(segments) {
			exit = e.calculateJunctionVelocity(
				seg, &segments[i+1], targets[i]*60, targets[i+1]*60)
		}

		t += e.calculateMoveTime(seg, targets[i], entry, exit)

		report.SegmentSeconds[i] = t
		report.TotalSeconds += t
		if seg.Kind == gcode.Cut {
			tool := seg.Tool
			if tool == 0 {
				tool = 1
			}
			report.ToolSeconds[tool] += t
		}
	}

	e.stats.EstimatedSeconds.Set(nil, report.TotalSeconds)
	e.logger.WithField("segments", len(segments)).
		WithField("seconds", report.TotalSeconds).
		Debug("estimate complete")

	return report
}

// targetVelocity returns the segment's steady-state speed in mm/s. Cuts
// use their feed rate; rapids use the compound rate implied by the
// slowest limiting axis reaching its ceiling over the same wall-clock
// span as the whole move.
func (e *Estimator) targetVelocity(seg *gcode.Segment) float64 {
	if seg.Kind == gcode.Cut {
		feed := seg.FeedRate
		if feed <= 0 {
			feed = defaultFeedRate
		}
		return feed / 60
	}

	d := seg.End.Sub(seg.Start)
	total := seg.Length()
	disp := [3]float64{d.X, d.Y, d.Z}

	rate := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		a := math.Abs(disp[axis])
		if a <= axisEpsilon {
			continue
		}
		axisTime := a / (e.limits.RapidRate[axis] / 60)
		if r := total / axisTime; r < rate {
			rate = r
		}
	}
	if math.IsInf(rate, 1) {
		// Degenerate rapid with no meaningful displacement.
		return e.limits.RapidRate[0] / 60
	}
	return rate
}

// calculateJunctionVelocity returns the speed in mm/s that segments a
// and b can share at their common endpoint. Zero when the segments are
// not continuous peers: absent, different tool or kind, or a positional
// gap between them.
func (e *Estimator) calculateJunctionVelocity(a, b *gcode.Segment, feedA, feedB float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	if a.Tool != b.Tool || a.Kind != b.Kind {
		return 0
	}
	gap := a.End.Sub(b.Start)
	if gap.X*gap.X+gap.Y*gap.Y+gap.Z*gap.Z >= junctionGapSq {
		return 0
	}

	da := a.End.Sub(a.Start)
	db := b.End.Sub(b.Start)
	lenA := a.Length()
	lenB := b.Length()
	if lenA == 0 || lenB == 0 {
		return 0
	}

	cosAngle := (da.X*db.X + da.Y*db.Y + da.Z*db.Z) / (lenA * lenB)
	minFeed := math.Min(feedA, feedB) / 60
	if cosAngle > collinearCos {
		return minFeed
	}
	// 0 at a full reversal, full speed as the corner straightens out.
	return minFeed * (1 + cosAngle) / 2
}

// calculateMoveTime returns the trapezoidal-profile duration of one
// segment in seconds. Entry and exit are clamped to the target velocity.
func (e *Estimator) calculateMoveTime(seg *gcode.Segment, target, entry, exit float64) float64 {
	distance := seg.Length()
	if distance == 0 {
		return 0
	}

	accel := e.effectiveAccel(seg)

	entry = math.Min(entry, target)
	exit = math.Min(exit, target)

	accelDistance := (target*target - entry*entry) / (2 * accel)
	decelDistance := (target*target - exit*exit) / (2 * accel)

	if accelDistance+decelDistance >= distance {
		// Acceleration-limited: the move never reaches target speed.
		peak := math.Sqrt(math.Max(0, (entry*entry+exit*exit)/2+accel*distance))
		return (peak-entry)/accel + (peak-exit)/accel
	}

	cruise := distance - accelDistance - decelDistance
	return (target-entry)/accel + cruise/target + (target-exit)/accel
}

// effectiveAccel is the smallest configured acceleration among the axes
// the segment actually moves.
func (e *Estimator) effectiveAccel(seg *gcode.Segment) float64 {
	d := seg.End.Sub(seg.Start)
	disp := [3]float64{d.X, d.Y, d.Z}

	accel := math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if math.Abs(disp[axis]) <= axisEpsilon {
			continue
		}
		if a := e.limits.Accel[axis]; a < accel {
			accel = a
		}
	}
	if math.IsInf(accel, 1) {
		return e.limits.Accel[0]
	}
	return accel
}
