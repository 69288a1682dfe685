package metrics

import "github.com/prometheus/client_golang/prometheus"

const Namespace = "coco"

var BackendOperationsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "backend",
	Name:      "operations_total",
	Help:      "Container backend operations.",
}, []string{"backend", "operation"})

var BackendErrorsMetric = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: Namespace,
	Subsystem: "backend",
	Name:      "operation_errors_total",
	Help:      "Failed container backend operations.",
}, []string{"backend", "operation"})

func init() {
	prometheus.MustRegister(BackendOperationsMetric)
	prometheus.MustRegister(BackendErrorsMetric)
}
