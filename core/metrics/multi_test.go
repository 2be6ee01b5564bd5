package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	ticks    int
	failures int
	err      error
}

func (r *recordSink) RecordTick(TickRecord) error {
	r.ticks++
	return r.err
}

func (r *recordSink) RecordModuleFailure(ModuleFailureEvent) error {
	r.failures++
	return nil
}

type tickOnly struct{ ticks int }

func (s *tickOnly) RecordTick(TickRecord) error { s.ticks++; return nil }

func TestMultiSinkForwardsToAll(t *testing.T) {
	boom := errors.New("broker down")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	s3 := &tickOnly{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordTick(TickRecord{Tick: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if s1.ticks != 1 || s2.ticks != 1 || s3.ticks != 1 {
		t.Fatalf("ticks not forwarded to every sink")
	}
	if err := m.RecordModuleFailure(ModuleFailureEvent{Module: "ohmic"}); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if s1.failures != 1 || s2.failures != 1 {
		t.Fatalf("failures not forwarded")
	}
}

func TestTickRecordNames(t *testing.T) {
	rec := TickRecord{Values: map[string]float64{"voltage": 1, "battery_soc": 0.2, "current_density": 10}}
	got := rec.Names()
	want := []string{"battery_soc", "current_density", "voltage"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names %v, want %v", got, want)
		}
	}
}
