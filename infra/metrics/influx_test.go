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

	coremetrics "github.com/kilianp07/h2grid/core/metrics"
)

type lineServer struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineServer) handler(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	l.mu.Lock()
	l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
	l.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func TestInfluxSink_RecordTick(t *testing.T) {
	ls := &lineServer{}
	srv := httptest.NewServer(http.HandlerFunc(ls.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := coremetrics.TickRecord{
		RunID:        "run-1",
		Tick:         7,
		Time:         now,
		Values:       map[string]float64{"temperature": 300, "cell_voltage": 1.75, "hydrogen_outflow": 5.18e-5},
		BatteryState: "CHARGING",
	}
	if err := sink.RecordTick(rec); err != nil {
		t.Fatalf("record error: %v", err)
	}

	p := write.NewPointWithMeasurement("pem_tick").
		AddTag("run_id", "run-1").
		AddTag("battery_state", "CHARGING").
		AddField("tick", int64(7)).
		AddField("cell_voltage", 1.75).
		AddField("hydrogen_outflow", 5.18e-5).
		AddField("temperature", 300.0).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(ls.bodies) != 1 || ls.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", ls.bodies)
	}
}

func TestInfluxSink_RecordModuleFailure(t *testing.T) {
	ls := &lineServer{}
	srv := httptest.NewServer(http.HandlerFunc(ls.handler))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	now := time.Date(2023, 1, 1, 1, 0, 0, 0, time.UTC)
	ev := coremetrics.ModuleFailureEvent{RunID: "run-1", Tick: 3, Module: "ohmic", Error: "domain error", Time: now}
	if err := sink.RecordModuleFailure(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("module_failure").
		AddTag("run_id", "run-1").
		AddTag("module", "ohmic").
		AddField("tick", int64(3)).
		AddField("error", "domain error").
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(ls.bodies) != 1 || ls.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", ls.bodies)
	}
}

func TestInfluxSink_WriteErrorReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "t", Org: "o", Bucket: "b"})
	err := sink.RecordTick(coremetrics.TickRecord{RunID: "r", Values: map[string]float64{"x": 1}})
	if err == nil {
		t.Fatal("expected write error")
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

	sink := NewInfluxSinkWithFallback(InfluxConfig{
		URL:    srv.URL + "/api/v2/write",
		Token:  "tok",
		Org:    "org",
		Bucket: "bucket",
	})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
