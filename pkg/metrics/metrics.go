package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Step labels used with StepDuration
const (
	StepResolveNamespaces  = "resolve_namespaces"
	StepMatchNetwork       = "match_network"
	StepProvisionInterface = "provision_interface"
	StepReconcileAddress   = "reconcile_address"
	StepActivateInterface  = "activate_interface"
	StepInstallRoute       = "install_route"
)

var (
	// Registry holds every vespanet metric. It is separate from the default
	// registry so a textfile dump only carries what one invocation measured.
	Registry = prometheus.NewRegistry()

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vespanet_step_duration_seconds",
			Help:    "Duration of each configuration step in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)

	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vespanet_invocations_total",
			Help: "Total number of configuration runs by mode and result",
		},
		[]string{"mode", "result"},
	)

	LinksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vespanet_links_created_total",
			Help: "Total number of container interfaces created",
		},
	)

	AddressesRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vespanet_addresses_removed_total",
			Help: "Total number of stale addresses removed from container interfaces",
		},
	)
)

func init() {
	Registry.MustRegister(StepDuration)
	Registry.MustRegister(InvocationsTotal)
	Registry.MustRegister(LinksCreated)
	Registry.MustRegister(AddressesRemoved)
}

// WriteTextfile writes the current values in the node_exporter textfile format
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in a histogram
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time in a histogram vec
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
