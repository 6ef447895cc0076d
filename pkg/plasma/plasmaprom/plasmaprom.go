// Package plasmaprom implements plasma.MetricsRecorder backed by
// github.com/prometheus/client_golang, mirroring the teacher's own
// promauto.With(reg)-based metrics packages (pkg/metrics/prometheus/
// cache.go, s3.go).
package plasmaprom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arrowlake/plasma-go/pkg/plasma"
)

// Metrics is the Prometheus-backed implementation of plasma.MetricsRecorder.
type Metrics struct {
	opsTotal     *prometheus.CounterVec
	opDuration   *prometheus.HistogramVec
	mmapRegions  prometheus.Gauge
	mmapBytes    prometheus.Gauge
	inUseEntries prometheus.Gauge
	historyLen   prometheus.Gauge
	historyBytes prometheus.Gauge
}

// New registers plasma client metrics on reg and returns a MetricsRecorder
// that feeds them. Pass to plasma.ClientConfig.Metrics.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		opsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "plasma_client_ops_total",
				Help: "Total number of client operations by name and result.",
			},
			[]string{"op", "result"},
		),
		opDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "plasma_client_op_duration_seconds",
				Help: "Duration of client operations in seconds.",
				Buckets: []float64{
					0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
				},
			},
			[]string{"op"},
		),
		mmapRegions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "plasma_client_mmap_regions",
				Help: "Number of distinct mmap regions currently held open.",
			},
		),
		mmapBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "plasma_client_mmap_bytes",
				Help: "Total bytes of all currently mapped regions.",
			},
		),
		inUseEntries: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "plasma_client_in_use_entries",
				Help: "Number of objects tracked by the in-use table.",
			},
		),
		historyLen: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "plasma_client_release_history_entries",
				Help: "Number of objects retained in the release history.",
			},
		),
		historyBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "plasma_client_release_history_bytes",
				Help: "Estimated resident bytes held by the release history.",
			},
		),
	}
}

func (m *Metrics) IncOps(op, result string) {
	m.opsTotal.WithLabelValues(op, result).Inc()
}

func (m *Metrics) ObserveOpDuration(op string, seconds float64) {
	m.opDuration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) ObserveStats(s plasma.Stats) {
	m.mmapRegions.Set(float64(s.MmapRegions))
	m.mmapBytes.Set(float64(s.MmapBytes))
	m.inUseEntries.Set(float64(s.InUseEntries))
	m.historyLen.Set(float64(s.ReleaseHistoryEntries))
	m.historyBytes.Set(float64(s.ReleaseHistoryBytes))
}

var _ plasma.MetricsRecorder = (*Metrics)(nil)
