package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apartadmin",
			Name:      "mutations_total",
			Help:      "Count of listing mutations by entity, operation and result.",
		},
		[]string{"entity", "op", "result"},
	)

	reorders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apartadmin",
			Name:      "reorder_swaps_total",
			Help:      "Count of reorder swaps by outcome.",
		},
		[]string{"outcome"},
	)

	alertPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apartadmin",
			Name:      "alert_polls_total",
			Help:      "Count of failed-reservation polls by result.",
		},
		[]string{"result"},
	)

	alertCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "apartadmin",
			Name:      "failed_reservations",
			Help:      "Failed reservations currently pending admin action.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "apartadmin",
			Name:      "http_requests_total",
			Help:      "Count of admin HTTP requests by route.",
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(mutations, reorders, alertPolls, alertCount, httpRequests)
	})
}

func IncMutation(entity, op, result string) {
	mutations.WithLabelValues(entity, op, result).Inc()
}

func IncReorder(outcome string) {
	reorders.WithLabelValues(outcome).Inc()
}

func IncAlertPoll(result string) {
	alertPolls.WithLabelValues(result).Inc()
}

func SetFailedReservations(n int) {
	alertCount.Set(float64(n))
}

func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}
