package handlers

import "github.com/prometheus/client_golang/prometheus"

type SignupMetrics struct {
	SyncRequests *prometheus.CounterVec
	ListRequests *prometheus.CounterVec
}

func (m *SignupMetrics) IncSync(operation, outcome string) {
	if m == nil || m.SyncRequests == nil {
		return
	}

	m.SyncRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *SignupMetrics) IncLists(status string) {
	if m == nil || m.ListRequests == nil {
		return
	}

	m.ListRequests.WithLabelValues(status).Inc()
}
