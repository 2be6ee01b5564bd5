package state

// Snapshot is a read-only copy of State taken at a stage boundary.
type Snapshot struct {
	rec record
}

// Get returns the value of f or ErrUninitialized.
func (s Snapshot) Get(f Field) (float64, error) { return s.rec.get(f) }

// Has reports whether f holds a value.
func (s Snapshot) Has(f Field) bool { return f.valid() && s.rec.set[f] }

// With returns a copy of s with d applied and derived fields refreshed.
// It is used to preview a delta without touching the owning State.
func (s Snapshot) With(d Delta) (Snapshot, error) {
	st := State{rec: s.rec}
	if err := st.Apply(d); err != nil {
		return Snapshot{}, err
	}
	return st.Snapshot(), nil
}

// Values returns the initialized fields keyed by telemetry name.
func (s Snapshot) Values() map[string]float64 {
	out := make(map[string]float64, numFields)
	for i := Field(0); i < numFields; i++ {
		if s.rec.set[i] {
			out[i.String()] = s.rec.values[i]
		}
	}
	return out
}

// Reader returns a helper that reads several fields and keeps the first
// error.
func (s Snapshot) Reader() *Reader { return &Reader{snap: s} }

// Reader accumulates the first failed read so a module can fetch all of its
// inputs before checking a single error.
type Reader struct {
	snap Snapshot
	err  error
}

// Get returns the field value, or 0 once any read has failed.
func (r *Reader) Get(f Field) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.snap.Get(f)
	if err != nil {
		r.err = err
		return 0
	}
	return v
}

// Err returns the first read error.
func (r *Reader) Err() error { return r.err }
