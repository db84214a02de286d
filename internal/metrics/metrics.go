package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_entries_created_total",
		Help: "The total number of parking tickets opened",
	})
	exitsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parking_exits_processed_total",
		Help: "The total number of parking tickets closed",
	})
	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parking_request_errors_total",
		Help: "Failed entry/exit requests by operation and error kind",
	}, []string{"operation", "kind"})
	chargeUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_charge_usd",
		Help:    "Fees charged on exit",
		Buckets: []float64{0, 2.5, 5, 10, 20, 40, 80, 160, 320},
	})
	stayMinutes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parking_stay_minutes",
		Help:    "Billed parking session length in whole minutes",
		Buckets: []float64{15, 30, 60, 120, 240, 480, 1440, 2880},
	})
)

func EntryCreated() {
	entriesCreated.Inc()
}

func ExitProcessed(totalMinutes int, charge float64) {
	exitsProcessed.Inc()
	stayMinutes.Observe(float64(totalMinutes))
	chargeUSD.Observe(charge)
}

func RequestFailed(operation, kind string) {
	requestErrors.WithLabelValues(operation, kind).Inc()
}
