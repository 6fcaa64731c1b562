package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the tool server collectors.
type Metrics struct {
	ToolCalls     *prometheus.CounterVec
	ToolDuration  *prometheus.HistogramVec
	Compilations  *prometheus.CounterVec
	Fallbacks     prometheus.Counter
	PointsSampled prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ToolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lambdify_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lambdify_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"tool"},
		),
		Compilations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lambdify_compilations_total",
				Help: "Lambdify compilations by backend and outcome",
			},
			[]string{"backend", "status"},
		),
		Fallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "lambdify_fallbacks_total",
			Help: "Expressions evaluated directly because they could not be lambdified",
		}),
		PointsSampled: f.NewCounter(prometheus.CounterOpts{
			Name: "lambdify_points_sampled_total",
			Help: "Points evaluated by sampling tools",
		}),
	}
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(tool string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveCompile records one lambdify attempt.
func (m *Metrics) ObserveCompile(backend string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Compilations.WithLabelValues(backend, status).Inc()
}

func (m *Metrics) ObserveFallback() {
	if m != nil {
		m.Fallbacks.Inc()
	}
}

func (m *Metrics) ObservePoints(n int) {
	if m != nil {
		m.PointsSampled.Add(float64(n))
	}
}
