package activitysync

import "github.com/prometheus/client_golang/prometheus"

const (
	metricOperationUpsert = "upsert"
	metricOperationDelete = "delete"
	metricResultSuccess   = "success"
	metricResultFailure   = "failure"
)

var (
	remoteOperationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura_sync",
		Subsystem: "remote",
		Name:      "operations_total",
		Help:      "Remote document writes attempted by the activity synchronizer, labeled by operation and result.",
	}, []string{"operation", "result"})

	skippedTriggersCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aura_sync",
		Name:      "skipped_triggers_total",
		Help:      "Save and delete triggers that ended without a remote write, labeled by reason.",
	}, []string{"reason"})
)

func init() {
	prometheus.MustRegister(remoteOperationsCounter, skippedTriggersCounter)
}

func recordRemoteOperation(operation string, err error) {
	result := metricResultSuccess
	if err != nil {
		result = metricResultFailure
	}
	remoteOperationsCounter.WithLabelValues(operation, result).Inc()
}

func recordSkip(reason SkipReason) {
	skippedTriggersCounter.WithLabelValues(string(reason)).Inc()
}
