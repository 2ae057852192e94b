// Package metrics provides Prometheus metrics for extraction and
// persistence.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolver tiers reported in ResolverHits.
const (
	TierAccessor = "accessor"
	TierRawTag   = "rawtag"
	TierQuery    = "query"
	TierIptc     = "iptc"
	TierFile     = "file"
	TierEncoder  = "encoder"
	TierCache    = "cache"
	TierStored   = "stored"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Values resolved, by media kind and the tier that answered.
	ResolverHits *prometheus.CounterVec

	// Persistence attempts by tier (inplace, clone, reencode) and result.
	PersistAttempts *prometheus.CounterVec

	// Wall time of a whole save or delete.
	PersistDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. A nil reg uses
// the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ResolverHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gallerymeta_resolver_hits_total",
			Help: "Metadata values resolved, by media kind and tier",
		}, []string{"media_kind", "tier"}),

		PersistAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gallerymeta_persist_attempts_total",
			Help: "Metadata write attempts by tier and result",
		}, []string{"tier", "result"}), // result: ok, failed

		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gallerymeta_persist_duration_seconds",
			Help:    "Time taken to write metadata into a file",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// Hit records a resolved value.
func (m *Metrics) Hit(mediaKind, tier string) {
	if m == nil {
		return
	}
	m.ResolverHits.WithLabelValues(mediaKind, tier).Inc()
}

// Attempt records one persistence tier outcome.
func (m *Metrics) Attempt(tier string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.PersistAttempts.WithLabelValues(tier, result).Inc()
}

// ObservePersist records the duration since start.
func (m *Metrics) ObservePersist(start time.Time) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(time.Since(start).Seconds())
}
