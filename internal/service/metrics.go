package service

import "github.com/prometheus/client_golang/prometheus"

var authEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_events_total",
		Help: "Authentication flow outcomes.",
	},
	[]string{"flow", "outcome"},
)

// RegisterMetrics adds the service collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(authEvents)
}

func observe(flow string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	authEvents.WithLabelValues(flow, outcome).Inc()
}
