// Package metrics holds the Prometheus collectors for cache and token lifecycle events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup outcomes
const (
	CacheHit         = "hit"
	CacheNegativeHit = "negative_hit"
	CacheMiss        = "miss"
	CacheCorrupt     = "corrupt"
)

// Token lifecycle outcomes
const (
	TokenSuccess = "success"
	TokenFailure = "failure"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albumgrid_cache_lookups_total",
			Help: "Read-through cache lookups by key namespace and outcome.",
		},
		[]string{"namespace", "outcome"},
	)

	UserTokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albumgrid_user_token_refreshes_total",
			Help: "User-delegated token refresh attempts by outcome.",
		},
		[]string{"outcome"},
	)

	CodeExchanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albumgrid_authorization_code_exchanges_total",
			Help: "Authorization-code exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	AppTokenGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albumgrid_app_token_grants_total",
			Help: "Client-credentials grants by outcome.",
		},
		[]string{"outcome"},
	)
)

func RecordCacheLookup(namespace, outcome string) {
	CacheLookups.WithLabelValues(namespace, outcome).Inc()
}

func RecordUserTokenRefresh(outcome string) {
	UserTokenRefreshes.WithLabelValues(outcome).Inc()
}

func RecordCodeExchange(outcome string) {
	CodeExchanges.WithLabelValues(outcome).Inc()
}

func RecordAppTokenGrant(outcome string) {
	AppTokenGrants.WithLabelValues(outcome).Inc()
}

// Outcome maps an error to TokenSuccess or TokenFailure
func Outcome(err error) string {
	if err != nil {
		return TokenFailure
	}
	return TokenSuccess
}

// Handler exposes the default registry for scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
