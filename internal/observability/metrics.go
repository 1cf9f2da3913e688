package observability

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric this process exports.
const Namespace = "groundqa"

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// PromMetrics adapts dotted metric names with free-form tags, as emitted by
// the completion client, onto Prometheus vectors. Vectors are created on
// first use; a later observation whose tag keys differ from the first is
// dropped.
type PromMetrics struct {
	reg    prometheus.Registerer
	logger *slog.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
	labels     map[string][]string
}

// NewPromMetrics creates an adapter registering into reg.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	return &PromMetrics{
		reg:        reg,
		logger:     slog.Default().With("component", "metrics"),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		labels:     make(map[string][]string),
	}
}

// MetricName converts "llm.requests.total" to "groundqa_llm_requests_total".
func MetricName(name string) string {
	return Namespace + "_" + strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

var (
	// 10ms to about 82s; a local model can take a minute on a long prompt.
	durationMsBuckets = prometheus.ExponentialBuckets(10, 2, 14)
	// 8 to 8192 tokens.
	tokenBuckets = prometheus.ExponentialBuckets(8, 2, 11)
)

// bucketsFor picks histogram buckets from the unit in a metric name.
func bucketsFor(name string) []float64 {
	switch {
	case strings.HasSuffix(name, "_ms"):
		return durationMsBuckets
	case strings.Contains(name, ".tokens."):
		return tokenBuckets
	default:
		return prometheus.DefBuckets
	}
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// checkLabels records the label set for name on first use and reports
// whether tags match it. Callers hold mu.
func (m *PromMetrics) checkLabels(name string, tags map[string]string) ([]string, bool) {
	names := labelNames(tags)
	known, ok := m.labels[name]
	if !ok {
		m.labels[name] = names
		return names, true
	}
	if !slices.Equal(known, names) {
		m.logger.Warn("metric label mismatch, dropping observation", "metric", name, "want", known, "got", names)
		return nil, false
	}
	return known, true
}

func (m *PromMetrics) register(name string, c prometheus.Collector) bool {
	if err := m.reg.Register(c); err != nil {
		m.logger.Warn("metric registration failed", "metric", name, "error", err)
		return false
	}
	return true
}

// IncrementCounter adds value to the counter name.
func (m *PromMetrics) IncrementCounter(name string, tags map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, ok := m.checkLabels(name, tags)
	if !ok {
		return
	}
	vec, exists := m.counters[name]
	if !exists {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: MetricName(name), Help: name}, names)
		if !m.register(name, vec) {
			return
		}
		m.counters[name] = vec
	}
	vec.With(tags).Add(value)
}

// RecordHistogram observes value in the histogram name.
func (m *PromMetrics) RecordHistogram(name string, tags map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, ok := m.checkLabels(name, tags)
	if !ok {
		return
	}
	vec, exists := m.histograms[name]
	if !exists {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricName(name),
			Help:    name,
			Buckets: bucketsFor(name),
		}, names)
		if !m.register(name, vec) {
			return
		}
		m.histograms[name] = vec
	}
	vec.With(tags).Observe(value)
}

// SetGauge sets the gauge name to value.
func (m *PromMetrics) SetGauge(name string, tags map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, ok := m.checkLabels(name, tags)
	if !ok {
		return
	}
	vec, exists := m.gauges[name]
	if !exists {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: MetricName(name), Help: name}, names)
		if !m.register(name, vec) {
			return
		}
		m.gauges[name] = vec
	}
	vec.With(tags).Set(value)
}
