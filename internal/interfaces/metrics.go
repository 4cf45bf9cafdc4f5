package interfaces

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the collector surface shared by the backend routes, the
// submission controller and the portal. Names are registered once at
// startup; operations on unregistered names are no-ops.
type Metrics interface {
	GetRegistry() *prometheus.Registry

	RegisterCounter(name, help string)
	RegisterCounterVec(name, help string, labels []string)
	RegisterHistogram(name, help string, buckets []float64)
	RegisterGauge(name, help string)

	IncCounter(name string)
	AddCounter(name string, value float64)
	IncCounterVec(name string, labels ...string)
	ObserveHistogram(name string, value float64)
	SetGauge(name string, value float64)
	IncGauge(name string)
	DecGauge(name string)
}
