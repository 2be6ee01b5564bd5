// Package pipeline evaluates the physics modules of one simulation tick.
//
// Modules are grouped in stages. Every module of a stage reads the same
// snapshot and the stage's deltas are applied, in declaration order, before
// the next stage starts, so the shared state is consistent at each stage
// boundary. A failing module never aborts the tick: it is logged, reported
// and its outputs are marked unavailable together with those of every module
// that requires it.
package pipeline

import (
	"fmt"
	"strconv"

	"github.com/kilianp07/h2grid/core/logger"
	coremon "github.com/kilianp07/h2grid/core/monitoring"
	"github.com/kilianp07/h2grid/core/physics"
	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

// Result is the outcome of a single tick.
type Result struct {
	Tick uint64
	// Values holds the input state fields and every scalar produced by a
	// module that succeeded.
	Values map[string]float64
	// Unavailable maps failed or skipped modules to their error.
	Unavailable map[string]error
}

// Available reports whether module produced output for this tick.
func (r Result) Available(module string) bool {
	_, failed := r.Unavailable[module]
	return !failed
}

// Pipeline runs the staged modules against a State it exclusively owns.
type Pipeline struct {
	st     *state.State
	stages [][]physics.Module
	log    logger.Logger

	last    uint64
	running bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used to report module failures.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New validates the stage layout and returns an idle pipeline. A module may
// only require modules from earlier stages.
func New(st *state.State, stages [][]physics.Module, opts ...Option) (*Pipeline, error) {
	if st == nil {
		return nil, simerr.Invalidf("pipeline requires a state")
	}
	seen := make(map[string]bool)
	for i, stage := range stages {
		for _, m := range stage {
			for _, dep := range m.Requires() {
				if !seen[dep] {
					return nil, simerr.Invalidf("module %s in stage %d requires %s from an earlier stage", m.Name(), i, dep)
				}
			}
		}
		for _, m := range stage {
			if seen[m.Name()] {
				return nil, simerr.Invalidf("module %s registered twice", m.Name())
			}
			seen[m.Name()] = true
		}
	}
	p := &Pipeline{st: st, stages: stages, log: logger.NopLogger{}}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// LastTick returns the last completed tick. ok is false while idle.
func (p *Pipeline) LastTick() (tick uint64, ok bool) { return p.last, p.running }

// Snapshot returns the current shared state.
func (p *Pipeline) Snapshot() state.Snapshot { return p.st.Snapshot() }

// Step evaluates every stage for tick and folds the deltas into the state.
func (p *Pipeline) Step(tick uint64) Result {
	res := Result{Tick: tick, Values: inputs(p.st.Snapshot()), Unavailable: map[string]error{}}
	for _, stage := range p.stages {
		snap := p.st.Snapshot()
		type done struct {
			m   physics.Module
			out physics.Output
		}
		var ok []done
		for _, m := range stage {
			if err := upstream(m, res.Unavailable); err != nil {
				p.fail(&res, m, err)
				continue
			}
			out, err := compute(m, snap)
			if err != nil {
				p.fail(&res, m, err)
				continue
			}
			ok = append(ok, done{m: m, out: out})
		}
		for _, d := range ok {
			if err := p.st.Apply(d.out.Delta); err != nil {
				p.fail(&res, d.m, fmt.Errorf("apply delta: %w", err))
				continue
			}
			for k, v := range d.out.Values {
				res.Values[k] = v
			}
		}
	}
	if v, err := p.st.Get(state.LambdaX); err == nil {
		res.Values[state.LambdaX.String()] = v
	}
	p.last, p.running = tick, true
	if len(res.Unavailable) > 0 {
		p.log.Warnf("tick %d completed with %d unavailable modules", tick, len(res.Unavailable))
	}
	return res
}

// fail records a module failure and invalidates the fields the module owns
// so the state never carries values from an earlier tick.
func (p *Pipeline) fail(res *Result, m physics.Module, err error) {
	module := m.Name()
	me := &simerr.ModuleError{Module: module, Tick: res.Tick, Err: err}
	res.Unavailable[module] = me
	if cerr := p.st.Clear(m.Writes()...); cerr != nil {
		p.log.Errorf("clear %s fields: %v", module, cerr)
	}
	p.log.Errorf("%v", me)
	coremon.CaptureException(me, map[string]string{
		"module": module,
		"tick":   strconv.FormatUint(res.Tick, 10),
	})
}

func upstream(m physics.Module, failed map[string]error) error {
	for _, dep := range m.Requires() {
		if _, bad := failed[dep]; bad {
			return fmt.Errorf("%s: %w", dep, simerr.ErrUpstream)
		}
	}
	return nil
}

func compute(m physics.Module, snap state.Snapshot) (out physics.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Compute(snap)
}

func inputs(snap state.Snapshot) map[string]float64 {
	out := make(map[string]float64)
	for _, f := range state.Fields() {
		if !f.Input() {
			continue
		}
		if v, err := snap.Get(f); err == nil {
			out[f.String()] = v
		}
	}
	return out
}
