package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
)

var (
	evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_evaluations_total",
		Help: "Number of SLA evaluations performed",
	})
	breaches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sla_breaches_total",
		Help: "Number of SLA evaluations that reported a breach",
	})
	cacheHits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sla_config_cache_hits",
		Help: "Cumulative resolver cache hits",
	})
	cacheMisses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sla_config_cache_misses",
		Help: "Cumulative resolver cache misses",
	})
	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sla_config_cache_entries",
		Help: "Current resolver cache entry count",
	})
)

// ObserveEvaluation records one evaluation and whether it breached.
func ObserveEvaluation(breached bool) {
	evaluations.Inc()
	if breached {
		breaches.Inc()
	}
}

// Handler exposes the Prometheus registry, refreshing resolver cache gauges
// on each scrape.
func Handler(a *apppkg.App) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		if a.SLA != nil {
			hits, misses, size := a.SLA.CacheStats()
			cacheHits.Set(float64(hits))
			cacheMisses.Set(float64(misses))
			cacheSize.Set(float64(size))
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
