package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewRegistry),
	fx.Provide(New),
)

func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Metrics records resolution and synchronization outcomes.
type Metrics struct {
	resolveTotal    *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	syncJobs        *prometheus.CounterVec
	syncItems       *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
}

// New registers the pricing metrics on the provided registerer.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	resolveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricebook_resolve_total",
		Help: "Price resolutions by outcome source.",
	}, []string{"source"})
	resolveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricebook_resolve_duration_seconds",
		Help:    "Duration of single-SKU price resolutions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	syncJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricebook_sync_jobs_total",
		Help: "Sync jobs by terminal status.",
	}, []string{"type", "status"})
	syncItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricebook_sync_items_total",
		Help: "Synced items by result.",
	}, []string{"result"})
	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricebook_sync_duration_seconds",
		Help:    "Duration of sync jobs.",
		Buckets: []float64{.1, .5, 1, 5, 15, 60, 300},
	}, []string{"type"})
	reg.MustRegister(resolveTotal, resolveDuration, syncJobs, syncItems, syncDuration)
	return &Metrics{
		resolveTotal:    resolveTotal,
		resolveDuration: resolveDuration,
		syncJobs:        syncJobs,
		syncItems:       syncItems,
		syncDuration:    syncDuration,
	}
}

func (m *Metrics) ObserveResolve(source string, duration time.Duration) {
	if m == nil || m.resolveTotal == nil {
		return
	}
	m.resolveTotal.WithLabelValues(normalizeLabel(source)).Inc()
	m.resolveDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

func (m *Metrics) IncSyncJob(jobType, status string) {
	if m == nil || m.syncJobs == nil {
		return
	}
	m.syncJobs.WithLabelValues(normalizeLabel(jobType), normalizeLabel(status)).Inc()
}

func (m *Metrics) AddSyncItems(result string, n int) {
	if m == nil || m.syncItems == nil || n <= 0 {
		return
	}
	m.syncItems.WithLabelValues(normalizeLabel(result)).Add(float64(n))
}

func (m *Metrics) ObserveSyncDuration(jobType string, duration time.Duration) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.WithLabelValues(normalizeLabel(jobType)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
