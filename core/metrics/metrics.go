package metrics

import "time"

// CheckEvent summarizes one solution check.
type CheckEvent struct {
	RunID       string
	Instance    string
	Variant     string
	Activities  int
	CrewMembers int
	Pairings    int
	Feasible    bool
	Cost        int
	Violations  map[string]int // count per violation kind
	Objective   int            // published objective, -1 when unknown
	Duration    time.Duration
	Time        time.Time
}

// MetricsSink records solution checks for observability purposes.
type MetricsSink interface {
	RecordCheck(ev CheckEvent) error
}

// ParseFailureEvent records an instance or solution file that could not be read.
type ParseFailureEvent struct {
	Path  string
	Stage string // "instance" or "solution"
	Err   string
	Time  time.Time
}

// ParseFailureRecorder records unreadable input files.
type ParseFailureRecorder interface {
	RecordParseFailure(ev ParseFailureEvent) error
}

// BatchEvent summarizes a batch run.
type BatchEvent struct {
	RunID    string
	Name     string
	Jobs     int
	Feasible int
	Failed   int
	Duration time.Duration
	Time     time.Time
}

// BatchRecorder records batch runs.
type BatchRecorder interface {
	RecordBatch(ev BatchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordCheck(CheckEvent) error               { return nil }
func (NopSink) RecordParseFailure(ParseFailureEvent) error { return nil }
func (NopSink) RecordBatch(BatchEvent) error               { return nil }
