// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlPagesTotal            *prometheus.CounterVec
	crawlBytesTotal            *prometheus.CounterVec
	crawlKeywordMatchesTotal   *prometheus.CounterVec
	crawlFetchDurationSeconds  *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_pages_total",
				Help: "Total number of page records emitted, labeled by domain and outcome.",
			},
			[]string{"domain", "outcome"},
		)

		crawlBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_bytes_total",
				Help: "Total number of body bytes fetched, labeled by domain.",
			},
			[]string{"domain"},
		)

		crawlKeywordMatchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_keyword_matches_total",
				Help: "Total keyword hits across emitted pages, labeled by keyword.",
			},
			[]string{"keyword"},
		)

		crawlFetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawl_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by domain.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeDomain extracts a lowercase hostname from a URL or host string.
// It returns "unknown" if nothing usable can be parsed.
func SanitizeDomain(raw string) string {
	if !strings.HasPrefix(raw, "http") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage increments the per-page collectors.
func ObservePage(domain, outcome string, bodyBytes int, keywords []string) {
	sanitized := SanitizeDomain(domain)
	crawlPagesTotal.WithLabelValues(sanitized, outcome).Inc()
	if bodyBytes > 0 {
		crawlBytesTotal.WithLabelValues(sanitized).Add(float64(bodyBytes))
	}
	for _, keyword := range keywords {
		crawlKeywordMatchesTotal.WithLabelValues(keyword).Inc()
	}
}

// ObserveFetchDuration records how long one page fetch took.
func ObserveFetchDuration(domain string, duration time.Duration) {
	crawlFetchDurationSeconds.WithLabelValues(SanitizeDomain(domain)).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
