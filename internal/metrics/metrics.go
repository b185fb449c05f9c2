// Package metrics exposes Prometheus counters for weave-run observability
// (spec.md section 4.7 supplement). These are ambient, not a spec'd
// feature: nothing in spec.md asks for a metrics HTTP endpoint, only for
// the final run report, so a *prometheus.Registry is handed back to the
// caller to expose however it likes instead of this package starting a
// server itself.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters incremented by the treadle executor and
// hookup dispatcher while a weave runs.
type Metrics struct {
	Registry *prometheus.Registry

	FilesGenerated prometheus.Counter
	FilesModified  prometheus.Counter
	FilesUnchanged prometheus.Counter
	TasksFailed    prometheus.Counter
	HookupErrors   *prometheus.CounterVec
}

// New constructs a Metrics bound to a fresh registry, so multiple weave
// runs in the same process (as in tests) never collide over duplicate
// registration the way a package-level default registry would.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		FilesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spireloom_files_generated_total",
			Help: "Number of files newly created by a weave run.",
		}),
		FilesModified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spireloom_files_modified_total",
			Help: "Number of existing files patched by a weave run.",
		}),
		FilesUnchanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spireloom_files_unchanged_total",
			Help: "Number of files visited but left byte-identical.",
		}),
		TasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spireloom_tasks_failed_total",
			Help: "Number of generation tasks that failed to render or hook up.",
		}),
		HookupErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spireloom_hookup_errors_total",
			Help: "Number of hookup failures by target file kind.",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.FilesGenerated,
		m.FilesModified,
		m.FilesUnchanged,
		m.TasksFailed,
		m.HookupErrors,
	)

	return m
}
