package validation

import (
	"fmt"
	"sort"

	"github.com/kilianp07/cspbc/core/model"
)

// Kind classifies a feasibility violation.
type Kind string

const (
	KindEmptyDuty            Kind = "empty_duty"
	KindEmptyPairing         Kind = "empty_pairing"
	KindInfeasibleConnection Kind = "infeasible_connection"
	KindWorkTimeExceeded     Kind = "work_time_exceeded"
	KindTooManyDuties        Kind = "too_many_duties"
	KindLayoverTooEarly      Kind = "layover_too_early"
	KindLayoverDuration      Kind = "layover_duration"
	KindCrewCount            Kind = "crew_count"
)

// NoPosition marks a location field that does not apply.
const NoPosition = -1

// Violation is one broken rule. Pairing and Duty are 0-based positions in the
// checked structure, NoPosition when the violation is above that level.
type Violation struct {
	Kind    Kind            `json:"kind"`
	Pairing int             `json:"pairing"`
	Duty    int             `json:"duty"`
	From    *model.Activity `json:"from,omitempty"`
	To      *model.Activity `json:"to,omitempty"`
	// Value is the measured quantity and Limit the bound it broke.
	Value int `json:"value"`
	Limit int `json:"limit"`
}

func (v Violation) location() string {
	switch {
	case v.Pairing != NoPosition && v.Duty != NoPosition:
		return fmt.Sprintf("pairing %d duty %d: ", v.Pairing+1, v.Duty+1)
	case v.Pairing != NoPosition:
		return fmt.Sprintf("pairing %d: ", v.Pairing+1)
	case v.Duty != NoPosition:
		return fmt.Sprintf("duty %d: ", v.Duty+1)
	default:
		return ""
	}
}

// String renders the violation for logs and terminals.
func (v Violation) String() string {
	var msg string
	switch v.Kind {
	case KindEmptyDuty:
		msg = "duty has no activities"
	case KindEmptyPairing:
		msg = "pairing has no duties"
	case KindInfeasibleConnection:
		msg = fmt.Sprintf("infeasible connection used from %v to %v", v.From, v.To)
	case KindWorkTimeExceeded:
		msg = fmt.Sprintf("work time %d exceeds maximum %d", v.Value, v.Limit)
	case KindTooManyDuties:
		msg = fmt.Sprintf("%d duties in pairing, at most %d allowed", v.Value, v.Limit)
	case KindLayoverTooEarly:
		msg = fmt.Sprintf("layover starts at %d, only allowed after %d", v.Value, v.Limit)
	case KindLayoverDuration:
		msg = fmt.Sprintf("layover connection time %d not within [%d,%d]", v.Value, minLayover, maxLayover)
	case KindCrewCount:
		msg = fmt.Sprintf("wrong number of pairings: %d for %d crew members", v.Value, v.Limit)
	default:
		msg = string(v.Kind)
	}
	return v.location() + msg
}

// Report is the outcome of a check. Cost is accumulated even when the
// checked structure is infeasible.
type Report struct {
	Feasible   bool        `json:"feasible"`
	Cost       int         `json:"cost"`
	Violations []Violation `json:"violations,omitempty"`
	// MaxWorkTime is the largest duty work time seen.
	MaxWorkTime int `json:"max_work_time"`
}

func newReport() Report { return Report{Feasible: true} }

func (r *Report) add(v Violation) {
	r.Feasible = false
	r.Violations = append(r.Violations, v)
}

func (r *Report) merge(o Report) {
	r.Feasible = r.Feasible && o.Feasible
	r.Cost += o.Cost
	r.Violations = append(r.Violations, o.Violations...)
	r.MaxWorkTime = max(r.MaxWorkTime, o.MaxWorkTime)
}

// CountByKind tallies violations per kind.
func (r Report) CountByKind() map[Kind]int {
	out := make(map[Kind]int)
	for _, v := range r.Violations {
		out[v.Kind]++
	}
	return out
}

// Kinds returns the distinct violation kinds in sorted order.
func (r Report) Kinds() []Kind {
	counts := r.CountByKind()
	out := make([]Kind, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// locate fills unset positions of violations produced one level down.
func locate(vs []Violation, pairing, duty int) {
	for i := range vs {
		if pairing != NoPosition && vs[i].Pairing == NoPosition {
			vs[i].Pairing = pairing
		}
		if duty != NoPosition && vs[i].Duty == NoPosition {
			vs[i].Duty = duty
		}
	}
}
