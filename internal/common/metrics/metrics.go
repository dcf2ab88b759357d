package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftstore_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "giftstore_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftstore_ledger_operations_total",
			Help: "Ledger operations by result",
		},
		[]string{"operation", "result"},
	)

	LedgerUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftstore_ledger_units_total",
			Help: "Gift units moved by committed ledger operations",
		},
		[]string{"operation"},
	)

	StarsSettledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "giftstore_stars_settled_total",
			Help: "Stars recorded on settled purchases",
		},
	)

	PaymentEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftstore_payment_events_total",
			Help: "Telegram payment webhook events",
		},
		[]string{"kind", "result"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "giftstore_cache_lookups_total",
			Help: "Cache lookups by key family and outcome",
		},
		[]string{"family", "outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordLedger counts one ledger operation; units are only added on success.
func RecordLedger(operation string, err error, units int64) {
	if err != nil {
		LedgerOperationsTotal.WithLabelValues(operation, "rejected").Inc()
		return
	}
	LedgerOperationsTotal.WithLabelValues(operation, "committed").Inc()
	LedgerUnitsTotal.WithLabelValues(operation).Add(float64(units))
}

func RecordStarsSettled(stars int64) {
	if stars > 0 {
		StarsSettledTotal.Add(float64(stars))
	}
}

func RecordPaymentEvent(kind, result string) {
	PaymentEventsTotal.WithLabelValues(kind, result).Inc()
}

func RecordCacheLookup(family string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsTotal.WithLabelValues(family, outcome).Inc()
}
