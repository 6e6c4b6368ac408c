package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partforge_cycles_total",
			Help: "Ingest cycles by outcome.",
		},
		[]string{"outcome"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "partforge_cycle_duration_seconds",
			Help:    "Duration of ingest cycles.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
	listingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partforge_listings_total",
			Help: "Raw listings seen per category.",
		},
		[]string{"category"},
	)
	listingsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partforge_listings_rejected_total",
			Help: "Listings skipped by normalization.",
		},
		[]string{"category"},
	)
	offersInserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partforge_offers_inserted_total",
			Help: "Offers written to the store.",
		},
		[]string{"category"},
	)
	workerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "partforge_worker_state",
			Help: "Current worker state (0 idle, 1 running, 2 backoff, 3 shutting down, 4 stopped).",
		},
	)
)

func init() {
	prometheus.MustRegister(cyclesTotal)
	prometheus.MustRegister(cycleDuration)
	prometheus.MustRegister(listingsTotal)
	prometheus.MustRegister(listingsRejected)
	prometheus.MustRegister(offersInserted)
	prometheus.MustRegister(workerState)
}

// RecordCycle counts a finished cycle.
func RecordCycle(err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	cyclesTotal.WithLabelValues(outcome).Inc()
	cycleDuration.Observe(duration.Seconds())
}

// RecordCategory counts one reconciled category batch.
func RecordCategory(category string, listings, rejected, offers int) {
	listingsTotal.WithLabelValues(category).Add(float64(listings))
	listingsRejected.WithLabelValues(category).Add(float64(rejected))
	offersInserted.WithLabelValues(category).Add(float64(offers))
}

// SetWorkerState publishes the numeric worker state.
func SetWorkerState(state int) {
	workerState.Set(float64(state))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
