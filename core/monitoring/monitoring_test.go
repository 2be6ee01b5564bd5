package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordMonitor struct {
	errs    []error
	flushed time.Duration
}

func (r *recordMonitor) CaptureException(err error, _ map[string]string) { r.errs = append(r.errs, err) }
func (r *recordMonitor) Recover()                                        {}
func (r *recordMonitor) Flush(d time.Duration)                           { r.flushed = d }

func TestInitAndCapture(t *testing.T) {
	m := &recordMonitor{}
	Init(m)
	defer Init(NopMonitor{})
	Init(nil)

	CaptureException(nil, nil)
	CaptureException(errors.New("ohmic failed"), map[string]string{"module": "ohmic"})
	Flush(time.Second)
	if len(m.errs) != 1 {
		t.Fatalf("expected one captured error, got %d", len(m.errs))
	}
	if m.flushed != time.Second {
		t.Fatalf("flush not forwarded")
	}
}
