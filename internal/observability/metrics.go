package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/kjstillabower/bank-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Ledger operations by outcome. Watch for: rising insufficient_funds or error share.
	BankOperationsTotal *prometheus.CounterVec

	// Money moved per operation type, in currency units. Watch for: unusual volume.
	BankAmountTotal *prometheus.CounterVec

	// Report generation latency. Watch for: growth with account count.
	ReportGenerationDuration prometheus.Histogram

	// Report requests served from an in-progress computation.
	ReportCoalescedTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	ledgerGaugesOnce    sync.Once
	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	BankOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankOperationsTotal",
			Help: "Ledger operations by operation and result",
		},
		[]string{"operation", "result"},
	)
	BankAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankAmountTotal",
			Help: "Sum of successfully moved amounts by transaction type",
		},
		[]string{"type"},
	)
	ReportGenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reportGenerationDurationSeconds",
			Help:    "Bank report generation latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
	ReportCoalescedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reportCoalescedTotal",
			Help: "Report requests that joined an identical in-progress computation",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		BankOperationsTotal, BankAmountTotal,
		ReportGenerationDuration, ReportCoalescedTotal,
		RateLimitDeniedTotal,
	)
}

// RecordOperation counts one ledger operation. result is "success" or an error label.
func RecordOperation(operation, result string) {
	BankOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordAmount adds a moved amount under its transaction type.
func RecordAmount(txType string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	BankAmountTotal.WithLabelValues(txType).Add(f)
}

// RegisterLedgerGauges exposes customer and account counts. Call once from main
// with functions reading the repository.
func RegisterLedgerGauges(customers, accounts func() int) {
	ledgerGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{Name: "bankCustomers", Help: "Number of registered customers"},
				func() float64 { return float64(customers()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{Name: "bankAccounts", Help: "Number of open accounts"},
				func() float64 { return float64(accounts()) },
			),
		)
	})
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
