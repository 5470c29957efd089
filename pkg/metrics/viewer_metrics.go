// Application metric set for gcodeview

package metrics

import "sync"

// ViewerMetrics bundles the metrics recorded by the interpreter and
// estimator, pre-registered in a single registry.
type ViewerMetrics struct {
	Registry *Registry

	// LinesTotal counts G-code lines processed.
	LinesTotal *Counter

	// SegmentsTotal counts emitted motion segments, labeled by kind.
	SegmentsTotal *Counter

	// ParseErrorsTotal counts recovered parse errors, labeled by code.
	ParseErrorsTotal *Counter

	// EstimatedSeconds is the most recent total time estimate.
	EstimatedSeconds *Gauge

	// ParseDurationSeconds is the wall-clock duration of the last parse.
	ParseDurationSeconds *Gauge
}

// NewViewerMetrics creates the application metric set.
func NewViewerMetrics() *ViewerMetrics {
	vm := &ViewerMetrics{
		Registry:             NewRegistry(),
		LinesTotal:           NewCounter("gcodeview_lines_total", "G-code lines processed"),
		SegmentsTotal:        NewCounter("gcodeview_segments_total", "Motion segments emitted"),
		ParseErrorsTotal:     NewCounter("gcodeview_parse_errors_total", "Recovered parse errors"),
		EstimatedSeconds:     NewGauge("gcodeview_estimated_seconds", "Total estimated execution time"),
		ParseDurationSeconds: NewGauge("gcodeview_parse_duration_seconds", "Wall-clock duration of last parse"),
	}
	vm.Registry.Register(vm.LinesTotal)
	vm.Registry.Register(vm.SegmentsTotal)
	vm.Registry.Register(vm.ParseErrorsTotal)
	vm.Registry.Register(vm.EstimatedSeconds)
	vm.Registry.Register(vm.ParseDurationSeconds)
	return vm
}

var (
	defaultMetrics     *ViewerMetrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide metric set.
func Default() *ViewerMetrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewViewerMetrics()
	})
	return defaultMetrics
}
