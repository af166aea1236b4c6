// Package metrics exposes Prometheus counters for document sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrajende/vdmlio/pkg/schema"
)

const namespace = "vdmlio"

// Metrics holds the collectors of one process. Each instance owns its own
// registry so tests and embedded uses do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	imports        *prometheus.CounterVec
	importDuration prometheus.Histogram
	warnings       *prometheus.CounterVec
	commands       *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	saves          *prometheus.CounterVec
}

// New creates and registers the collectors. withRuntime adds the Go and
// process collectors.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Documents imported, by outcome.",
		}, []string{"outcome"}),
		importDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time spent reading and drawing a document.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_warnings_total",
			Help:      "Recoverable import problems, by code.",
		}, []string{"code"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Completed command stack operations, by trigger and command.",
		}, []string{"trigger", "command"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_rejections_total",
			Help:      "Commands refused by the modeling rules.",
		}, []string{"command"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Documents written, by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(m.imports, m.importDuration, m.warnings, m.commands, m.rejections, m.saves)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveImport records one import attempt. err is the fatal error, if any.
func (m *Metrics) ObserveImport(seconds float64, warnings schema.Warnings, err error) {
	if m == nil {
		return
	}
	m.importDuration.Observe(seconds)
	if err != nil {
		m.imports.WithLabelValues("failed").Inc()
		return
	}
	m.imports.WithLabelValues("ok").Inc()
	for _, w := range warnings {
		m.warnings.WithLabelValues(w.Code).Inc()
	}
}

// ObserveCommand records a completed stack operation.
func (m *Metrics) ObserveCommand(trigger, command string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(trigger, command).Inc()
}

// ObserveRejection records a command the rules refused.
func (m *Metrics) ObserveRejection(command string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(command).Inc()
}

// ObserveSave records a document written in format (xml, svg, mermaid).
func (m *Metrics) ObserveSave(format string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(format).Inc()
}
