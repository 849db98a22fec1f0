// Package metrics exposes Prometheus counters for triage, search and backfill.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "smartdesk"

// Metrics holds the engine's counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	triage           *prometheus.CounterVec
	search           *prometheus.CounterVec
	providerFailures *prometheus.CounterVec
	backfill         *prometheus.CounterVec
}

// New registers the engine counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		triage: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triage_total",
			Help:      "Ticket classifications by source and queue.",
		}, []string{"source", "queue"}),
		search: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Knowledge searches by retrieval mode.",
		}, []string{"mode"}),
		providerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_failures_total",
			Help:      "Failed calls to external classifier or embedding providers.",
		}, []string{"provider"}),
		backfill: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backfill",
			Name:      "items_total",
			Help:      "Backfill items by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveTriage counts a classification.
func (m *Metrics) ObserveTriage(source, queue string) {
	if m == nil {
		return
	}
	m.triage.WithLabelValues(source, queue).Inc()
}

// ObserveSearch counts a search response by mode.
func (m *Metrics) ObserveSearch(mode string) {
	if m == nil {
		return
	}
	m.search.WithLabelValues(mode).Inc()
}

// ObserveProviderFailure counts a failed provider call, labelled by the
// component that made it.
func (m *Metrics) ObserveProviderFailure(provider string) {
	if m == nil {
		return
	}
	m.providerFailures.WithLabelValues(provider).Inc()
}

// ObserveBackfill counts a backfill item outcome ("embedded" or "failed").
func (m *Metrics) ObserveBackfill(outcome string) {
	if m == nil {
		return
	}
	m.backfill.WithLabelValues(outcome).Inc()
}
