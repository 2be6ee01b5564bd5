package metrics

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTick forwards rec to every sink and returns the first error after
// all sinks have been tried.
func (m *MultiSink) RecordTick(rec TickRecord) error {
	var first error
	for _, s := range m.Sinks {
		if err := s.RecordTick(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordModuleFailure forwards ev to the sinks that record failures.
func (m *MultiSink) RecordModuleFailure(ev ModuleFailureEvent) error {
	var first error
	for _, s := range m.Sinks {
		if rec, ok := s.(ModuleFailureRecorder); ok {
			if err := rec.RecordModuleFailure(ev); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Close closes every sink that holds a connection.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.Sinks {
		if err := CloseSink(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
