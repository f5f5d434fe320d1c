// Package metrics exposes Prometheus counters for selector cache behaviour
// and for save and delete outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"editstate/internal/memo"
)

const namespace = "editstate"

// Outcome labels for requests.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics implements memo.Observer, so it can be handed to every selector
// cache.
type Metrics struct {
	memoHits      *prometheus.CounterVec
	memoMisses    *prometheus.CounterVec
	memoEvictions *prometheus.CounterVec
	saves         *prometheus.CounterVec
	deletes       *prometheus.CounterVec
	gatherer      prometheus.Gatherer
}

var _ memo.Observer = (*Metrics)(nil)

// New registers the collectors with reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		memoHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "cache_hits_total",
			Help:      "Selector calls answered from the memo cache",
		}, []string{"selector"}),
		memoMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "cache_misses_total",
			Help:      "Selector calls that recomputed their result",
		}, []string{"selector"}),
		memoEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selector",
			Name:      "cache_evictions_total",
			Help:      "Argument tuples evicted from the memo cache",
		}, []string{"selector"}),
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "saves_total",
			Help:      "Record saves by entity and outcome",
		}, []string{"kind", "name", "autosave", "outcome"}),
		deletes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "records",
			Name:      "deletes_total",
			Help:      "Record deletes by entity and outcome",
		}, []string{"kind", "name", "outcome"}),
		gatherer: reg,
	}
}

func (m *Metrics) Hit(cache string)   { m.memoHits.WithLabelValues(cache).Inc() }
func (m *Metrics) Miss(cache string)  { m.memoMisses.WithLabelValues(cache).Inc() }
func (m *Metrics) Evict(cache string) { m.memoEvictions.WithLabelValues(cache).Inc() }

func (m *Metrics) RecordSave(kind, name string, autosave bool, err error) {
	flag := "false"
	if autosave {
		flag = "true"
	}
	m.saves.WithLabelValues(kind, name, flag, outcome(err)).Inc()
}

func (m *Metrics) RecordDelete(kind, name string, err error) {
	m.deletes.WithLabelValues(kind, name, outcome(err)).Inc()
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
