package metrics

import (
	"testing"
	"time"

	"bondquest-rounds/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRoundLifecycleMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RoundStarted(domain.KindSpeed)
	m.RoundStarted(domain.KindSpeed)
	m.RoundStarted(domain.KindMatch)
	if got := testutil.ToFloat64(m.ActiveRounds.WithLabelValues("speed")); got != 2 {
		t.Fatalf("expected 2 active speed rounds, got %v", got)
	}

	m.RoundFinished(domain.Outcome{Kind: domain.KindSpeed, Points: 15}, 3*time.Second)
	m.RoundFinished(domain.Outcome{Kind: domain.KindSpeed, TimedOut: true}, 10*time.Second)
	m.RoundDiscarded(domain.KindMatch)

	if got := testutil.ToFloat64(m.RoundsFinished.WithLabelValues("speed", "completed")); got != 1 {
		t.Fatalf("expected 1 completed speed round, got %v", got)
	}
	if got := testutil.ToFloat64(m.RoundsFinished.WithLabelValues("speed", "timed_out")); got != 1 {
		t.Fatalf("expected 1 timed out speed round, got %v", got)
	}
	if got := testutil.ToFloat64(m.RoundsDiscarded.WithLabelValues("match")); got != 1 {
		t.Fatalf("expected 1 discarded match round, got %v", got)
	}
	for _, kind := range []string{"speed", "match"} {
		if got := testutil.ToFloat64(m.ActiveRounds.WithLabelValues(kind)); got != 0 {
			t.Fatalf("expected no active %s rounds, got %v", kind, got)
		}
	}
	if n := testutil.CollectAndCount(m.Points); n != 1 {
		t.Fatalf("expected one points series, got %d", n)
	}
}
