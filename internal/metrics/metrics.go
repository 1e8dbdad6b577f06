package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "election_alerts_created_total",
		Help: "Alerts created, by severity.",
	}, []string{"severity"})

	AlertsEscalated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "election_alerts_escalated_total",
		Help: "Alerts escalated after the acknowledgment deadline passed.",
	})

	ActiveAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "election_alerts_active",
		Help: "Alerts currently open (active, acknowledged or escalated).",
	})

	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "election_alerts_deliveries_total",
		Help: "Notification delivery attempts, by channel and outcome.",
	}, []string{"channel", "outcome"})
)
