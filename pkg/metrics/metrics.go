// Metrics collection for gcodeview
//
// Provides Prometheus-compatible metrics collection:
// - Counter: Monotonically increasing values
// - Gauge: Values that can go up and down
//
// Outputs in Prometheus text format for easy scraping.

package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gcodeview/pkg/pool"
)

// Labels represents metric labels as key-value pairs.
type Labels map[string]string

// labelKey generates a unique key for a label set.
func labelKey(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(labels[k])
	}
	return sb.String()
}

// formatLabels renders labels in Prometheus format: {k="v",...}.
func formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeLabel(labels[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

func formatFloat(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Metric is the common interface for all metric types.
type Metric interface {
	Name() string
	Help() string
	Write(buf *pool.ByteBuffer)
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name   string
	help   string
	mu     sync.RWMutex
	values map[string]uint64
	labels map[string]Labels
}

// NewCounter creates a new counter metric.
func NewCounter(name, help string) *Counter {
	return &Counter{
		name:   name,
		help:   help,
		values: make(map[string]uint64),
		labels: make(map[string]Labels),
	}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Help() string { return c.help }

// Inc increments the counter by one.
func (c *Counter) Inc(labels Labels) {
	c.Add(labels, 1)
}

// Add increments the counter by delta.
func (c *Counter) Add(labels Labels, delta uint64) {
	key := labelKey(labels)
	c.mu.Lock()
	c.values[key] += delta
	if _, ok := c.labels[key]; !ok {
		c.labels[key] = labels
	}
	c.mu.Unlock()
}

// Get returns the current value for a label set.
func (c *Counter) Get(labels Labels) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labels)]
}

// Write renders the counter in Prometheus text format.
func (c *Counter) Write(buf *pool.ByteBuffer) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fmt.Fprintf(buf, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", c.name)
	for _, key := range sortedKeys(c.values) {
		fmt.Fprintf(buf, "%s%s %d\n", c.name, formatLabels(c.labels[key]), c.values[key])
	}
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	name   string
	help   string
	mu     sync.RWMutex
	values map[string]float64
	labels map[string]Labels
}

// NewGauge creates a new gauge metric.
func NewGauge(name, help string) *Gauge {
	return &Gauge{
		name:   name,
		help:   help,
		values: make(map[string]float64),
		labels: make(map[string]Labels),
	}
}

func (g *Gauge) Name() string { return g.name }
func (g *Gauge) Help() string { return g.help }

// Set sets the gauge to a value.
func (g *Gauge) Set(labels Labels, value float64) {
	key := labelKey(labels)
	g.mu.Lock()
	g.values[key] = value
	if _, ok := g.labels[key]; !ok {
		g.labels[key] = labels
	}
	g.mu.Unlock()
}

// Get returns the current value for a label set.
func (g *Gauge) Get(labels Labels) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labels)]
}

// Write renders the gauge in Prometheus text format.
func (g *Gauge) Write(buf *pool.ByteBuffer) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	fmt.Fprintf(buf, "# HELP %s %s\n", g.name, g.help)
	fmt.Fprintf(buf, "# TYPE %s gauge\n", g.name)
	for _, key := range sortedValueKeys(g.values) {
		fmt.Fprintf(buf, "%s%s %s\n", g.name, formatLabels(g.labels[key]), formatFloat(g.values[key]))
	}
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedValueKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry holds a set of metrics and renders them together.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates an empty metrics registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds a metric to the registry. Duplicate names are ignored.
func (r *Registry) Register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[m.Name()]; dup {
		return
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// Render produces the Prometheus text exposition for all metrics.
func (r *Registry) Render() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buf := pool.GetByteBuffer()
	defer pool.PutByteBuffer(buf)
	for _, m := range r.metrics {
		m.Write(buf)
	}
	return buf.String()
}

// Handler returns an http.Handler serving the text exposition.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		if req.Method == http.MethodHead {
			return
		}
		fmt.Fprint(w, r.Render())
	})
}
