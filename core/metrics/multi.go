package metrics

import (
	"errors"
	"io"
)

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCheck forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCheck(ev CheckEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCheck(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordParseFailure forwards to sinks implementing ParseFailureRecorder.
func (m *MultiSink) RecordParseFailure(ev ParseFailureEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ParseFailureRecorder); ok {
			if err := rec.RecordParseFailure(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordBatch forwards to sinks implementing BatchRecorder.
func (m *MultiSink) RecordBatch(ev BatchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(BatchRecorder); ok {
			if err := rec.RecordBatch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer and returns the joined errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
