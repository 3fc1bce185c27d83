package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const namespace = "ciberseguridad"

// Service names for metrics registration
const (
	ServiceHTTP     = "http"
	ServiceFeatures = "features"
	ServiceScans    = "scans"
	ServiceWorker   = "worker"
)

// RegisterMetrics registers metrics for the specified services with a custom registry
func RegisterMetrics(services []string, registry *prometheus.Registry, logger *logrus.Logger) {
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", registry, logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", registry, logger)

	for _, service := range services {
		switch service {
		case ServiceHTTP:
			registerIfNotExists(httpRequestsTotal, "http_requests_total", registry, logger)
			registerIfNotExists(httpRequestDuration, "http_request_duration", registry, logger)
			registerIfNotExists(httpActiveRequests, "http_active_requests", registry, logger)
		case ServiceFeatures:
			registerIfNotExists(featuresEnabled, "features_enabled", registry, logger)
		case ServiceScans:
			registerIfNotExists(scansEnqueued, "scans_requests_total", registry, logger)
			registerIfNotExists(scanIncidents, "scans_incidents_total", registry, logger)
		case ServiceWorker:
			registerIfNotExists(workerTasksTotal, "worker_tasks_total", registry, logger)
			registerIfNotExists(workerTaskDuration, "worker_task_duration", registry, logger)
			registerIfNotExists(workerTasksActive, "worker_tasks_active", registry, logger)
			registerIfNotExists(workerLastTaskTimestamp, "worker_last_task_timestamp", registry, logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, registry *prometheus.Registry, logger *logrus.Logger) {
	if err := registry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegErr) {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}
