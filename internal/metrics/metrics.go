// Package metrics registers the Prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treasurehunt_searches_total",
		Help: "Total number of nearby treasure searches",
	})
	SearchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "treasurehunt_search_results",
		Help:    "Number of treasures returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
	SearchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "treasurehunt_search_duration_ms",
		Help:    "Search duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	CollectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treasurehunt_collections_total",
		Help: "Collection attempts by outcome",
	}, []string{"outcome"})
	RewardsCreditedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "treasurehunt_rewards_credited_total",
		Help: "Sum of reward amounts credited to users",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "treasurehunt_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})
)

// Collection outcome labels.
const (
	OutcomeCollected = "collected"
	OutcomeNotFound  = "not_found"
	OutcomeTooFar    = "too_far"
	OutcomeNoRewards = "no_rewards"
	OutcomeError     = "error"
)

func init() {
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(SearchDurationMs)
	prometheus.MustRegister(CollectionsTotal)
	prometheus.MustRegister(RewardsCreditedTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// Handler exposes the registered collectors for Prometheus scraping.
func Handler() http.Handler { return promhttp.Handler() }
