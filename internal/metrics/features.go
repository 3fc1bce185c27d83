package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/iquiquesec/ciberseguridad/internal/features"
)

var (
	featuresEnabled = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "features",
			Name:      "enabled",
			Help:      "Current state of each feature flag (1 enabled, 0 disabled)",
		},
		[]string{"key"},
	)

	scansEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scans",
			Name:      "requests_total",
			Help:      "Ransomware scan requests by outcome",
		},
		[]string{"outcome"}, // outcome: enqueued, duplicate, disabled, failed
	)

	scanIncidents = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scans",
			Name:      "incidents_total",
			Help:      "Ransomware incidents recorded by completed scans",
		},
	)
)

// ObserveFeatures is a features.Observer that mirrors the flag set into a gauge.
func ObserveFeatures(set features.Set) {
	for key, f := range set {
		v := 0.0
		if f.Enabled {
			v = 1
		}
		featuresEnabled.WithLabelValues(key).Set(v)
	}
}

// ScanMetrics records ransomware scan activity.
type ScanMetrics struct{}

func NewScanMetrics() *ScanMetrics {
	return &ScanMetrics{}
}

func (sm *ScanMetrics) RecordRequest(outcome string) {
	if sm == nil {
		return
	}
	scansEnqueued.WithLabelValues(outcome).Inc()
}

func (sm *ScanMetrics) RecordIncidents(n int) {
	if sm == nil {
		return
	}
	scanIncidents.Add(float64(n))
}
