package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matheus3301/letschat/internal/tree"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubJournal struct{ err error }

func (s stubJournal) Apply([]tree.Write) error { return s.err }

func TestObserveOp(t *testing.T) {
	m := New(nil)
	m.ObserveOp("Set", "OK")
	m.ObserveOp("Set", "OK")
	m.ObserveOp("Set", "ResourceExhausted")

	if got := testutil.ToFloat64(m.ops.WithLabelValues("Set", "OK")); got != 2 {
		t.Errorf("Set/OK = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ops.WithLabelValues("Set", "ResourceExhausted")); got != 1 {
		t.Errorf("Set/ResourceExhausted = %v, want 1", got)
	}
}

func TestWatchers(t *testing.T) {
	m := New(nil)
	m.WatchStarted()
	m.WatchStarted()
	m.WatchEnded()
	if got := testutil.ToFloat64(m.watchers); got != 1 {
		t.Errorf("watchers = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOp("Get", "OK")
	m.ObserveLimited("Set")
	m.WatchStarted()
	m.WatchEnded()
	j := stubJournal{}
	if m.Journal(j) != tree.Journal(j) {
		t.Error("nil metrics should return the journal unchanged")
	}
}

func TestJournalTiming(t *testing.T) {
	m := New(nil)
	boom := errors.New("disk full")
	j := m.Journal(stubJournal{err: boom})
	if err := j.Apply(nil); !errors.Is(err, boom) {
		t.Fatalf("Apply error = %v", err)
	}
	if n := testutil.CollectAndCount(m.journal); n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestHandlerExposesNodes(t *testing.T) {
	m := New(func() float64 { return 42 })
	m.ObserveLimited("Push")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{"letschat_hub_journal_nodes 42", `letschat_hub_rate_limited_total{method="Push"} 1`} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
