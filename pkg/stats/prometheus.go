package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Collector that mirrors every counter into a Prometheus
// registry while keeping an in-memory copy so Get keeps working. Counter
// keys become the "key" label on the exported metric families.
type Prometheus struct {
	inner    *Memory
	counters *prometheus.CounterVec
	maxima   *prometheus.GaugeVec
}

// NewPrometheus creates a Prometheus-backed collector registered with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	counters := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "prowl",
		Name:      "events_total",
		Help:      "Browser pool and fetch pipeline event counters, by key.",
	}, []string{"key"})

	maxima := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "prowl",
		Name:      "observed_max",
		Help:      "High-water marks tracked by the pool, by key.",
	}, []string{"key"})

	if err := reg.Register(counters); err != nil {
		return nil, err
	}
	if err := reg.Register(maxima); err != nil {
		return nil, err
	}

	return &Prometheus{
		inner:    NewMemory(),
		counters: counters,
		maxima:   maxima,
	}, nil
}

// Inc increments the named counter by one.
func (p *Prometheus) Inc(key string) {
	p.Add(key, 1)
}

// Add increments the named counter by delta.
func (p *Prometheus) Add(key string, delta int64) {
	p.inner.Add(key, delta)
	p.counters.WithLabelValues(key).Add(float64(delta))
}

// SetMax records value under key if it exceeds the current value.
func (p *Prometheus) SetMax(key string, value int64) {
	p.inner.SetMax(key, value)
	p.maxima.WithLabelValues(key).Set(float64(p.inner.Get(key)))
}

// Get returns the current value for key.
func (p *Prometheus) Get(key string) int64 {
	return p.inner.Get(key)
}
