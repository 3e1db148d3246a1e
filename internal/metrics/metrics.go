// Package metrics exposes Prometheus collectors for the policy pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlURLsTotal       *prometheus.CounterVec
	crawlFailuresTotal   *prometheus.CounterVec
	crawlDurationSeconds prometheus.Histogram
	policiesInSnapshot   prometheus.Gauge
	httpRequestsTotal    *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		crawlURLsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_crawl_urls_total",
				Help: "Source URLs processed per crawl, labeled by outcome.",
			},
			[]string{"outcome"},
		)
		crawlFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_crawl_failures_total",
				Help: "Per-URL failures, labeled by pipeline stage.",
			},
			[]string{"stage"},
		)
		crawlDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "policy_crawl_duration_seconds",
				Help:    "Wall-clock duration of full crawl runs.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
		)
		policiesInSnapshot = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "policy_snapshot_records",
				Help: "Number of policy records in the most recent snapshot.",
			},
		)
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "policy_http_requests_total",
				Help: "API requests, labeled by route and status code.",
			},
			[]string{"route", "code"},
		)
	})
}

// ObserveURL counts one processed URL with its outcome ("success" or
// "failure").
func ObserveURL(outcome string) {
	if crawlURLsTotal != nil {
		crawlURLsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveStageFailure counts a per-URL failure at a pipeline stage
// ("fetch", "extract").
func ObserveStageFailure(stage string) {
	if crawlFailuresTotal != nil {
		crawlFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// ObserveCrawlDuration records the duration of a full crawl run.
func ObserveCrawlDuration(d time.Duration) {
	if crawlDurationSeconds != nil {
		crawlDurationSeconds.Observe(d.Seconds())
	}
}

// SetSnapshotSize records the record count of the latest snapshot.
func SetSnapshotSize(n int) {
	if policiesInSnapshot != nil {
		policiesInSnapshot.Set(float64(n))
	}
}

// ObserveHTTPRequest counts one API request.
func ObserveHTTPRequest(route, code string) {
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(route, code).Inc()
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
