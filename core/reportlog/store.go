// Package reportlog persists the outcome of solution checks so that runs can
// be compared and queried later.
package reportlog

import (
	"context"
	"time"

	"github.com/kilianp07/cspbc/core/stats"
	"github.com/kilianp07/cspbc/core/validation"
)

// Record captures one checked solution.
type Record struct {
	ID             string            `json:"id"`
	RunID          string            `json:"run_id"`
	Timestamp      time.Time         `json:"timestamp"`
	Instance       string            `json:"instance"`
	Variant        string            `json:"variant,omitempty"`
	SolutionFile   string            `json:"solution_file"`
	Activities     int               `json:"activities"`
	CrewMembers    int               `json:"crew_members"`
	Report         validation.Report `json:"report"`
	Stats          stats.Summary     `json:"stats"`
	Objective      int               `json:"objective"`
	ClaimedOptimal bool              `json:"claimed_optimal"`
	// Error is set when the files could not be read; Report is then empty.
	Error string `json:"error,omitempty"`
}

// Feasible reports whether the solution was read and passed every check.
func (r Record) Feasible() bool { return r.Error == "" && r.Report.Feasible }

// Gap returns the relative cost gap to the published objective.
func (r Record) Gap() (float64, bool) {
	if r.Objective <= 0 || r.Error != "" {
		return 0, false
	}
	return float64(r.Report.Cost-r.Objective) / float64(r.Objective), true
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	Start          time.Time
	End            time.Time
	Instance       string
	RunID          string
	InfeasibleOnly bool
}

// Match reports whether r passes the filters.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Instance != "" && r.Instance != q.Instance {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.InfeasibleOnly && r.Feasible() {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
