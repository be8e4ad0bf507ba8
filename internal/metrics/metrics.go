// Package metrics exposes Prometheus collectors for the harvester and its
// query service.
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
	listingsTotal              *prometheus.CounterVec
	sitemapURLsTotal           prometheus.Counter
	pageLoadSeconds            *prometheus.HistogramVec
	publishFailuresTotal       prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		listingsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_listings_total",
				Help: "Listings processed, labeled by terminal outcome.",
			},
			[]string{"outcome"},
		)

		sitemapURLsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_sitemap_urls_total",
				Help: "Listing URLs discovered from sitemaps.",
			},
		)

		pageLoadSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_page_load_seconds",
				Help:    "Time spent loading and extracting a listing page.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"site", "result"},
		)

		publishFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "harvester_publish_failures_total",
				Help: "Persisted-listing notifications that failed to publish.",
			},
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

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListing increments the outcome counter.
func ObserveListing(outcome string) {
	listingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSitemapURLs adds n discovered listing URLs.
func ObserveSitemapURLs(n int) {
	if n > 0 {
		sitemapURLsTotal.Add(float64(n))
	}
}

// ObservePageLoad records how long loading and extracting pageURL took.
func ObservePageLoad(pageURL, result string, duration time.Duration) {
	pageLoadSeconds.WithLabelValues(SanitizeSite(pageURL), result).Observe(duration.Seconds())
}

// ObservePublishFailure counts a failed notification.
func ObservePublishFailure() {
	publishFailuresTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
