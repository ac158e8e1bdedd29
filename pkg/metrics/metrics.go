package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "snippets"

	metricLabelHandler   = "handler"
	metricLabelStatus    = "status"
	metricLabelSource    = "source"
	metricLabelRemote    = "remote"
	metricLabelOperation = "operation"
)

// Metrics is the structure that holds all prometheus metrics
var (
	// ServiceRequestCounter count the number of requests for each service function
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each handler",
		metricLabelHandler, metricLabelStatus, metricLabelSource,
	)
	// ServiceRequestDuration observe the duration of requests for each service function
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to unmarshal requests, execute a service function and marshal its reponses",
		metricLabelHandler, metricLabelStatus, metricLabelSource,
	)
	// MutationsCompletedCounter count the number of successful collection mutations
	MutationsCompletedCounter = newCounterVec(
		"mutations_completed_count",
		"Number of mutations that were successfully persisted",
		metricLabelOperation,
	)
	// MutationsFailedCounter count the number of mutations that were rejected or failed to persist
	MutationsFailedCounter = newCounterVec(
		"mutations_failed_count",
		"Number of mutations that were rejected or failed due to an error",
		metricLabelOperation,
	)
	// MutationDuration observe the duration of each store mutation
	MutationDuration = newSummaryVec(
		"mutation_duration_seconds",
		"Duration in seconds for each store mutation",
		metricLabelOperation,
	)
	// StoreRequestCounter count the total number of store read requests
	StoreRequestCounter = newCounterVec(
		"store_request_count",
		"Number of read requests against the collection",
		metricLabelSource,
	)
	// NumSocketsGauge keep track of the total number of open sockets
	NumSocketsGauge = newGaugeVec(
		"num_sockets_total",
		"Total number of currently open socket connections",
		metricLabelRemote,
	)
	// HistoryPersistFailedCounter count the number of failed attempts to persist the collection history
	HistoryPersistFailedCounter = newCounterVec(
		"history_persist_failed_count",
		"Number of failures to store the collection history in the backend",
	)
	// NumSnippetsGauge keep track of the size of the collection
	NumSnippetsGauge = newGaugeVec(
		"num_snippets_total",
		"Number of snippets in the collection",
	)
)

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
