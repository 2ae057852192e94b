package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Hit("image", TierAccessor)
	m.Hit("image", TierAccessor)
	m.Attempt("inplace", errors.New("no room"))
	m.Attempt("clone", nil)
	m.ObservePersist(time.Now())

	if got := testutil.ToFloat64(m.ResolverHits.WithLabelValues("image", TierAccessor)); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PersistAttempts.WithLabelValues("inplace", "failed")); got != 1 {
		t.Errorf("failed attempts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PersistAttempts.WithLabelValues("clone", "ok")); got != 1 {
		t.Errorf("ok attempts = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Hit("image", TierRawTag)
	m.Attempt("clone", nil)
	m.ObservePersist(time.Now())
}
