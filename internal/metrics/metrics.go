// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus collectors for the category service
// and the /metrics HTTP handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backoffice"

// Result labels for mutation outcomes.
const (
	ResultOK           = "ok"
	ResultNotFound     = "not_found"
	ResultInvalid      = "invalid"
	ResultStorageError = "storage_error"
)

// Category holds the collectors recorded by category.Service. A nil
// *Category records nothing.
type Category struct {
	mutations   *prometheus.CounterVec
	cascade     *prometheus.HistogramVec
	forestCache *prometheus.CounterVec
}

// NewCategory registers the category collectors with reg.
func NewCategory(reg prometheus.Registerer) *Category {
	f := promauto.With(reg)
	return &Category{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "category",
			Name:      "mutations_total",
			Help:      "Category mutations by operation and result.",
		}, []string{"op", "result"}),
		cascade: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "category",
			Name:      "cascade_nodes",
			Help:      "Number of descendant nodes touched by a cascading rename or delete.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}, []string{"op"}),
		forestCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "category",
			Name:      "forest_cache_total",
			Help:      "Forest cache lookups by result.",
		}, []string{"result"}),
	}
}

// ObserveMutation counts one mutation outcome.
func (m *Category) ObserveMutation(op, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

// ObserveCascade records how many descendants a cascade touched.
func (m *Category) ObserveCascade(op string, nodes int) {
	if m == nil {
		return
	}
	m.cascade.WithLabelValues(op).Observe(float64(nodes))
}

// ObserveForestCache counts a forest cache hit or miss.
func (m *Category) ObserveForestCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.forestCache.WithLabelValues(result).Inc()
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
