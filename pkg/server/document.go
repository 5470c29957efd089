package server

import (
	"io"
	"time"

	"gcodeview/pkg/gcode"
	"gcodeview/pkg/kinematics"
	"gcodeview/pkg/playback"
)

// Document is one fully analyzed G-code file: the parse result, its time
// report, and the seek index. Immutable once built; the server swaps the
// active document atomically under its lock.
type Document struct {
	Name     string
	LoadedAt time.Time

	Result *gcode.Result
	Report *kinematics.Report
	Index  *playback.Index
}

// LoadDocument parses r, estimates its execution time, and builds the
// seek index.
func LoadDocument(name string, r io.Reader, est *kinematics.Estimator, fallbackRate float64) (*Document, error) {
	parser := gcode.NewParser()
	result, err := parser.Parse(r)
	if err != nil {
		return nil, err
	}

	report := est.Estimate(result.Segments)

	return &Document{
		Name:     name,
		LoadedAt: time.Now(),
		Result:   result,
		Report:   report,
		Index:    playback.NewIndex(result.Segments, report, fallbackRate),
	}, nil
}

// status builds the JSON-facing summary of the document.
func (d *Document) status() map[string]any {
	toolTimes := make(map[string]any)
	for tool, seconds := range d.Report.ToolSeconds {
		toolTimes[d.Result.Tools.NameFor(tool)] = map[string]any{
			"seconds":   seconds,
			"formatted": kinematics.FormatDuration(seconds),
			"color":     d.Result.Tools.ColorFor(tool),
		}
	}

	status := map[string]any{
		"name":            d.Name,
		"loaded_at":       d.LoadedAt.Format(time.RFC3339),
		"lines":           d.Result.Lines,
		"segments":        len(d.Result.Segments),
		"recovered":       d.Result.Recovered,
		"total_seconds":   d.Report.TotalSeconds,
		"total_formatted": kinematics.FormatDuration(d.Report.TotalSeconds),
		"cut_distance":    d.Index.TotalDistance(),
		"tool_times":      toolTimes,
	}

	if !d.Result.Bounds.IsEmpty() {
		b := d.Result.Bounds
		status["bounds"] = map[string]any{
			"min":  []float64{b.Min.X, b.Min.Y, b.Min.Z},
			"max":  []float64{b.Max.X, b.Max.Y, b.Max.Z},
			"size": []float64{b.Size().X, b.Size().Y, b.Size().Z},
		}
	}

	return status
}

// toolList builds the JSON-facing tool registry.
func (d *Document) toolList() []map[string]any {
	entries := d.Result.Tools.Entries()
	out := make([]map[string]any, 0, len(entries))
	for i, e := range entries {
		// Slot i carries tool value i in the inline regime, i+1 in the
		// sequential one.
		tool := i + 1
		if d.Result.Tools.IsInlineRegime() {
			tool = i
		}
		out = append(out, map[string]any{
			"number": e.Number,
			"name":   e.Name,
			"color":  d.Result.Tools.ColorFor(tool),
		})
	}
	return out
}
