package kinematics

import (
	"math"
	"testing"

	"gcodeview/pkg/errors"
	"gcodeview/pkg/gcode"
)

func testEstimator(t *testing.T) *Estimator {
	t.Helper()
	e, err := NewEstimator(DefaultLimits())
	if err != nil {
		t.Fatalf("NewEstimator: %v", err)
	}
	return e
}

func cutSeg(start, end gcode.Position, feed float64) gcode.Segment {
	return gcode.Segment{Kind: gcode.Cut, Start: start, End: end, FeedRate: feed}
}

func TestLimitsValidation(t *testing.T) {
	bad := DefaultLimits()
	bad.Accel[1] = 0
	if _, err := NewEstimator(bad); errors.CodeOf(err) != errors.ErrEstimatorLimits {
		t.Errorf("zero acceleration: err = %v", err)
	}

	bad = DefaultLimits()
	bad.RapidRate[2] = -100
	if _, err := NewEstimator(bad); errors.CodeOf(err) != errors.ErrEstimatorLimits {
		t.Errorf("negative rapid rate: err = %v", err)
	}

	if err := DefaultLimits().Validate(); err != nil {
		t.Errorf("default limits should validate: %v", err)
	}
}

func TestMoveTimeLongCruise(t *testing.T) {
	// Target 10 mm/s over 20 mm at 200 mm/s² from rest: the accel and
	// decel ramps cover 0.25 mm each, so the move is dominated by the
	// 10 mm/s cruise and takes just over 2 seconds.
	limits := DefaultLimits()
	limits.Accel = [3]float64{200, 200, 200}
	e, err := NewEstimator(limits)
	if err != nil {
		t.Fatal(err)
	}

	seg := cutSeg(gcode.Position{}, gcode.Position{X: 20}, 600)
	got := e.calculateMoveTime(&seg, 10, 0, 0)
	if math.Abs(got-2.0) > 0.1 {
		t.Errorf("move time = %v, want ~2.0", got)
	}
}

func TestMoveTimeAccelerationLimited(t *testing.T) {
	// At the default 500 mm/s² X acceleration and a 10 mm/s target, the
	// ramps need 0.2 mm; a 0.15 mm move never reaches target speed.
	e := testEstimator(t)
	seg := cutSeg(gcode.Position{}, gcode.Position{X: 0.15}, 600)

	got := e.calculateMoveTime(&seg, 10, 0, 0)
	accel := e.limits.Accel[0]
	peak := math.Sqrt(accel * 0.15)
	want := 2 * peak / accel
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("accel-limited time = %v, want %v", got, want)
	}
}

func TestMoveTimeZeroDistance(t *testing.T) {
	e := testEstimator(t)
	seg := cutSeg(gcode.Position{X: 1}, gcode.Position{X: 1}, 600)
	if got := e.calculateMoveTime(&seg, 10, 0, 0); got != 0 {
		t.Errorf("zero-distance time = %v, want 0", got)
	}
}

func TestJunctionVelocityZeroCases(t *testing.T) {
	e := testEstimator(t)

	a := cutSeg(gcode.Position{}, gcode.Position{X: 10}, 600)
	b := cutSeg(gcode.Position{X: 10}, gcode.Position{X: 20}, 600)

	if got := e.calculateJunctionVelocity(nil, &b, 600, 600); got != 0 {
		t.Errorf("nil neighbor: %v, want 0", got)
	}

	diffTool := b
	diffTool.Tool = 2
	if got := e.calculateJunctionVelocity(&a, &diffTool, 600, 600); got != 0 {
		t.Errorf("different tool: %v, want 0", got)
	}

	diffKind := b
	diffKind.Kind = gcode.Rapid
	if got := e.calculateJunctionVelocity(&a, &diffKind, 600, 600); got != 0 {
		t.Errorf("different kind: %v, want 0", got)
	}

	gap := b
	gap.Start = gcode.Position{X: 10.01}
	if got := e.calculateJunctionVelocity(&a, &gap, 600, 600); got != 0 {
		t.Errorf("positional gap: %v, want 0", got)
	}
}

func TestJunctionVelocityAngles(t *testing.T) {
	e := testEstimator(t)

	a := cutSeg(gcode.Position{}, gcode.Position{X: 10}, 600)

	// Collinear continuation: full cornering speed, min feed.
	straight := cutSeg(gcode.Position{X: 10}, gcode.Position{X: 20}, 1200)
	if got := e.calculateJunctionVelocity(&a, &straight, 600, 1200); got != 10 {
		t.Errorf("collinear junction = %v, want 10", got)
	}

	// Right angle: (1+0)/2 of min feed.
	corner := cutSeg(gcode.Position{X: 10}, gcode.Position{X: 10, Y: 10}, 600)
	if got := e.calculateJunctionVelocity(&a, &corner, 600, 600); math.Abs(got-5) > 1e-9 {
		t.Errorf("right-angle junction = %v, want 5", got)
	}

	// Full reversal: zero.
	reverse := cutSeg(gcode.Position{X: 10}, gcode.Position{}, 600)
	if got := e.calculateJunctionVelocity(&a, &reverse, 600, 600); math.Abs(got) > 1e-9 {
		t.Errorf("reversal junction = %v, want 0", got)
	}
}

func TestRapidCompoundRate(t *testing.T) {
	e := testEstimator(t)

	// Pure X rapid runs at the X ceiling.
	seg := gcode.Segment{Kind: gcode.Rapid, Start: gcode.Position{}, End: gcode.Position{X: 100}}
	if got := e.targetVelocity(&seg); math.Abs(got-e.limits.RapidRate[0]/60) > 1e-9 {
		t.Errorf("X rapid velocity = %v, want %v", got, e.limits.RapidRate[0]/60)
	}

	// A diagonal with Z is limited by the much slower Z axis. The
	// compound rate makes all axes finish together.
	diag := gcode.Segment{Kind: gcode.Rapid, Start: gcode.Position{}, End: gcode.Position{X: 30, Z: 40}}
	total := diag.Length()
	zTime := 40 / (e.limits.RapidRate[2] / 60)
	xTime := 30 / (e.limits.RapidRate[0] / 60)
	want := math.Min(total/zTime, total/xTime)
	if got := e.targetVelocity(&diag); math.Abs(got-want) > 1e-9 {
		t.Errorf("diagonal rapid velocity = %v, want %v", got, want)
	}
}

func TestEstimateToolBuckets(t *testing.T) {
	e := testEstimator(t)

	segs := []gcode.Segment{
		{Kind: gcode.Rapid, Start: gcode.Position{}, End: gcode.Position{X: 10}},
		cutSeg(gcode.Position{X: 10}, gcode.Position{X: 20}, 600),
		func() gcode.Segment {
			s := cutSeg(gcode.Position{X: 20}, gcode.Position{X: 30}, 600)
			s.Tool = 2
			s.ToolChange = gcode.AutomaticToolChange
			return s
		}(),
	}

	report := e.Estimate(segs)

	if len(report.SegmentSeconds) != 3 {
		t.Fatalf("segment seconds length = %d", len(report.SegmentSeconds))
	}

	var sum float64
	for _, s := range report.SegmentSeconds {
		if s < 0 {
			t.Errorf("negative segment time %v", s)
		}
		sum += s
	}
	if math.Abs(sum-report.TotalSeconds) > 1e-9 {
		t.Errorf("total %v != sum of segments %v", report.TotalSeconds, sum)
	}

	// Untagged cut lands in bucket 1; rapid time lands in no bucket.
	if report.ToolSeconds[1] <= 0 {
		t.Error("tool 1 bucket is empty")
	}
	// Tool 2's bucket carries the automatic change overhead.
	if report.ToolSeconds[2] < e.limits.AutomaticToolChangeTime {
		t.Errorf("tool 2 bucket = %v, want at least the change overhead %v",
			report.ToolSeconds[2], e.limits.AutomaticToolChangeTime)
	}

	var bucketSum float64
	for _, s := range report.ToolSeconds {
		bucketSum += s
	}
	if bucketSum >= report.TotalSeconds {
		t.Error("rapid time must not be bucketed per tool")
	}
}

func TestEstimateManualChangeOverhead(t *testing.T) {
	e := testEstimator(t)

	plain := []gcode.Segment{cutSeg(gcode.Position{}, gcode.Position{X: 10}, 600)}
	tagged := []gcode.Segment{func() gcode.Segment {
		s := cutSeg(gcode.Position{}, gcode.Position{X: 10}, 600)
		s.ToolChange = gcode.ManualToolChange
		return s
	}()}

	delta := e.Estimate(tagged).TotalSeconds - e.Estimate(plain).TotalSeconds
	if math.Abs(delta-e.limits.ManualToolChangeTime) > 1e-9 {
		t.Errorf("manual change overhead = %v, want %v", delta, e.limits.ManualToolChangeTime)
	}
}

func TestEstimateDefaultFeedGuard(t *testing.T) {
	e := testEstimator(t)
	segs := []gcode.Segment{cutSeg(gcode.Position{}, gcode.Position{X: 10}, 0)}
	report := e.Estimate(segs)
	if report.TotalSeconds <= 0 || math.IsInf(report.TotalSeconds, 0) || math.IsNaN(report.TotalSeconds) {
		t.Errorf("feedless cut time = %v, want positive finite", report.TotalSeconds)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{5, "5s"},
		{65, "1m 5s"},
		{3600, "1h 0m 0s"},
		{3725, "1h 2m 5s"},
		{59.6, "1m 0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
