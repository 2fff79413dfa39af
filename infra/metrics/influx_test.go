package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/cspbc/core/metrics"
)

func influxRecorder(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordCheck(t *testing.T) {
	srv, bodies := influxRecorder(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()

	now := time.Now()
	ev := coremetrics.CheckEvent{
		RunID:       "run1",
		Instance:    "csp50",
		Variant:     "base",
		Activities:  50,
		CrewMembers: 27,
		Pairings:    27,
		Feasible:    true,
		Cost:        3139,
		Violations:  map[string]int{},
		Duration:    1500 * time.Microsecond,
		Time:        now,
	}
	if err := sink.RecordCheck(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("solution_check").
		AddTag("instance", "csp50").
		AddTag("feasible", "true").
		AddTag("crew_members", "27").
		AddTag("variant", "base").
		AddTag("run_id", "run1").
		AddField("cost", 3139).
		AddField("pairings", 27).
		AddField("activities", 50).
		AddField("violations", 0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %v\nwant %s", got, expected)
	}
}

func TestInfluxSink_ParseFailureAndBatch(t *testing.T) {
	srv, bodies := influxRecorder(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "t", Org: "o", Bucket: "b"})
	defer func() { _ = sink.Close() }()

	now := time.Now()
	if err := sink.RecordParseFailure(coremetrics.ParseFailureEvent{Path: "csp50.txt", Stage: "instance", Err: "bad header", Time: now}); err != nil {
		t.Fatalf("record parse failure: %v", err)
	}
	if err := sink.RecordBatch(coremetrics.BatchEvent{RunID: "r", Name: "sweep", Jobs: 3, Feasible: 2, Time: now}); err != nil {
		t.Fatalf("record batch: %v", err)
	}
	got := bodies()
	if len(got) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "parse_failure,stage=instance") {
		t.Errorf("unexpected parse failure point: %s", got[0])
	}
	if !strings.HasPrefix(got[1], "batch_run,batch=sweep,run_id=r") {
		t.Errorf("unexpected batch point: %s", got[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
