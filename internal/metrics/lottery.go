package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotto_board_purchases_total",
			Help: "Board purchases by result",
		},
		[]string{"result"},
	)

	purchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotto_board_purchase_duration_ms",
			Help:    "Board purchase duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result"},
	)

	gameEndTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotto_game_end_total",
			Help: "EndGame calls by result",
		},
		[]string{"result"},
	)

	renewalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotto_subscription_renewals_total",
			Help: "Subscription renewal outcomes",
		},
		[]string{"outcome"},
	)

	lockTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotto_entity_lock_acquire_total",
			Help: "Entity mutex acquisitions by driver and result",
		},
		[]string{"driver", "result"},
	)
)

// RecordPurchase records a board purchase. result is "success" or an error
// kind such as "conflict" or "contention".
func RecordPurchase(result string, started time.Time) {
	purchaseTotal.WithLabelValues(result).Inc()
	purchaseDuration.WithLabelValues(result).Observe(float64(time.Since(started).Milliseconds()))
}

func RecordGameEnd(result string) {
	gameEndTotal.WithLabelValues(result).Inc()
}

// RecordRenewal outcome is one of renewed, deactivated, skipped or failed.
func RecordRenewal(outcome string, n int) {
	if n <= 0 {
		return
	}
	renewalTotal.WithLabelValues(outcome).Add(float64(n))
}

func RecordLock(driver, result string) {
	lockTotal.WithLabelValues(driver, result).Inc()
}
