package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ConnectionsTotal prometheus.Gauge
	RoomsActive      prometheus.Gauge
	MessagesReceived prometheus.Counter
	MessagesSent     prometheus.Counter
	Executions       *prometheus.CounterVec
	OracleLatency    prometheus.Histogram
	Verdicts         *prometheus.CounterVec
	MatchesStarted   prometheus.Counter
	MatchesEnded     *prometheus.CounterVec
	KafkaMessages    *prometheus.CounterVec
	AuthFailures     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections_total",
			Help: "Total number of active WebSocket connections",
		}),
		RoomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "battle_rooms_active",
			Help: "Number of battle rooms currently in the active state",
		}),
		MessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_received_total",
			Help: "Total number of messages received from clients",
		}),
		MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_sent_total",
			Help: "Total number of messages sent to clients",
		}),
		Executions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_executions_total",
			Help: "Total number of execution oracle calls by result",
		}, []string{"status"}),
		OracleLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "oracle_call_latency_seconds",
			Help:    "Execution oracle round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_verdicts_total",
			Help: "Total number of graded submissions by verdict",
		}, []string{"verdict"}),
		MatchesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "battle_matches_started_total",
			Help: "Total number of matches paired by the matchmaker",
		}),
		MatchesEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "battle_matches_ended_total",
			Help: "Total number of matches reaching a terminal state, by reason",
		}, []string{"reason"}),
		KafkaMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_messages_processed_total",
			Help: "Total number of Kafka messages processed",
		}, []string{"topic", "status"}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ws_auth_failures_total",
			Help: "Total number of authentication failures",
		}),
	}
}

// The Inc helpers tolerate a nil receiver so callers under test can run
// without a registry.

func (m *Metrics) IncConnections() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Inc()
}

func (m *Metrics) DecConnections() {
	if m == nil {
		return
	}
	m.ConnectionsTotal.Dec()
}

func (m *Metrics) IncRoomsActive() {
	if m == nil {
		return
	}
	m.RoomsActive.Inc()
}

func (m *Metrics) DecRoomsActive() {
	if m == nil {
		return
	}
	m.RoomsActive.Dec()
}

func (m *Metrics) IncMessagesReceived() {
	if m == nil {
		return
	}
	m.MessagesReceived.Inc()
}

func (m *Metrics) IncMessagesSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

func (m *Metrics) IncExecution(status string) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveOracleLatency(seconds float64) {
	if m == nil {
		return
	}
	m.OracleLatency.Observe(seconds)
}

func (m *Metrics) IncVerdict(verdict string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(verdict).Inc()
}

func (m *Metrics) IncMatchesStarted() {
	if m == nil {
		return
	}
	m.MatchesStarted.Inc()
}

func (m *Metrics) IncMatchEnded(reason string) {
	if m == nil {
		return
	}
	m.MatchesEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncKafkaMessage(topic, status string) {
	if m == nil {
		return
	}
	m.KafkaMessages.WithLabelValues(topic, status).Inc()
}

func (m *Metrics) IncAuthFailures() {
	if m == nil {
		return
	}
	m.AuthFailures.Inc()
}
