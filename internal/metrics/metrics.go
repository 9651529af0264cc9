package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FilipeSCampos/GameSphere/internal/domain/search"
)

// Catalog holds the catalog search metrics. It implements rawg.Observer.
type Catalog struct {
	searches *prometheus.CounterVec
	duration *prometheus.HistogramVec
	upstream *prometheus.CounterVec
	gatherer prometheus.Gatherer
}

// NewCatalog creates the catalog collectors and registers them on reg.
func NewCatalog(reg *prometheus.Registry) *Catalog {
	c := &Catalog{
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesphere_catalog_searches_total",
				Help: "Total number of catalog searches by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gamesphere_catalog_search_duration_seconds",
				Help:    "Duration of catalog searches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		),
		upstream: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamesphere_catalog_upstream_responses_total",
				Help: "Responses received from the catalog API by status code",
			},
			[]string{"code"},
		),
		gatherer: reg,
	}
	reg.MustRegister(c.searches, c.duration, c.upstream)
	return c
}

// ObserveSearch records one finished search.
func (c *Catalog) ObserveSearch(_ context.Context, rec search.Record) {
	outcome := string(rec.Outcome)
	c.searches.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(rec.Duration.Seconds())
	if rec.StatusCode != 0 {
		c.upstream.WithLabelValues(strconv.Itoa(rec.StatusCode)).Inc()
	}
}

// Handler exposes the registry in the Prometheus text format.
func (c *Catalog) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
