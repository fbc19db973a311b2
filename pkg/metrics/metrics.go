package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "signals"

	LabelStatus = "status"
	LabelReason = "reason"
	LabelResult = "result"
	LabelJob    = "job"
)

type Metrics struct {
	SignalsIngested  *prometheus.CounterVec
	SignalsRejected  *prometheus.CounterVec
	SignalsReviewed  *prometheus.CounterVec
	TelegramMessages *prometheus.CounterVec
	JobRuns          *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		SignalsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingested_total",
			Help:      "number of signals accepted, by decided status",
		}, []string{LabelStatus}),
		SignalsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ingest_rejected_total",
			Help:      "number of ingest requests refused before a signal was stored",
		}, []string{LabelReason}),
		SignalsReviewed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reviewed_total",
			Help:      "number of pending signals moved to a final status",
		}, []string{LabelStatus}),
		TelegramMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "telegram_messages_total",
			Help:      "number of telegram notifications attempted",
		}, []string{LabelResult}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "job_runs_total",
			Help:      "number of scheduled job executions",
		}, []string{LabelJob, LabelResult}),
	}
}

func (m *Metrics) Register(registry prometheus.Registerer) {
	registry.MustRegister(
		m.SignalsIngested,
		m.SignalsRejected,
		m.SignalsReviewed,
		m.TelegramMessages,
		m.JobRuns,
	)
}
