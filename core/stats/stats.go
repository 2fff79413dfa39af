// Package stats computes descriptive statistics of solutions.
package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/cspbc/core/model"
)

// Layovers counts the layovers over all pairings.
func Layovers(pairings []model.Pairing) int {
	n := 0
	for _, p := range pairings {
		n += p.Layovers()
	}
	return n
}

// Duties counts the duties over all pairings.
func Duties(pairings []model.Pairing) int {
	n := 0
	for _, p := range pairings {
		n += len(p)
	}
	return n
}

// DutiesCountingSingleTwice counts duties, counting single-duty pairings as two.
func DutiesCountingSingleTwice(pairings []model.Pairing) int {
	n := 0
	for _, p := range pairings {
		if len(p) == 1 {
			n++
		}
		n += len(p)
	}
	return n
}

// Deadheads counts the deadhead activities of a duty.
func Deadheads(d model.Duty) int {
	n := 0
	for _, a := range d {
		if !a.IsWork() {
			n++
		}
	}
	return n
}

// WorkActivities counts the work activities of a duty.
func WorkActivities(d model.Duty) int {
	return len(d) - Deadheads(d)
}

// LongestDeadheadRun is the longest run of consecutive deadheads in a duty.
func LongestDeadheadRun(d model.Duty) int {
	run, best := 0, 0
	for _, a := range d {
		if a.IsWork() {
			run = 0
			continue
		}
		run++
		best = max(best, run)
	}
	return best
}

func maxPerDuty(pairings []model.Pairing, f func(model.Duty) int) int {
	best := 0
	for _, p := range pairings {
		for _, d := range p {
			best = max(best, f(d))
		}
	}
	return best
}

// MaxDeadheadsPerDuty is the largest deadhead count of any duty.
func MaxDeadheadsPerDuty(pairings []model.Pairing) int {
	return maxPerDuty(pairings, Deadheads)
}

// MaxDeadheadRunPerDuty is the longest deadhead run of any duty.
func MaxDeadheadRunPerDuty(pairings []model.Pairing) int {
	return maxPerDuty(pairings, LongestDeadheadRun)
}

// MaxActivitiesPerDuty is the largest number of activities of any duty.
func MaxActivitiesPerDuty(pairings []model.Pairing) int {
	return maxPerDuty(pairings, func(d model.Duty) int { return len(d) })
}

// MaxWorkActivitiesPerDuty is the largest work activity count of any duty.
func MaxWorkActivitiesPerDuty(pairings []model.Pairing) int {
	return maxPerDuty(pairings, WorkActivities)
}

// Summary gathers the statistics reported for one solution.
type Summary struct {
	Pairings                  int     `json:"pairings"`
	Duties                    int     `json:"duties"`
	DutiesCountingSingleTwice int     `json:"duties_counting_single_twice"`
	Layovers                  int     `json:"layovers"`
	Deadheads                 int     `json:"deadheads"`
	MaxDeadheadsPerDuty       int     `json:"max_deadheads_per_duty"`
	MaxDeadheadRunPerDuty     int     `json:"max_deadhead_run_per_duty"`
	MaxActivitiesPerDuty      int     `json:"max_activities_per_duty"`
	MaxWorkActivitiesPerDuty  int     `json:"max_work_activities_per_duty"`
	MeanActivitiesPerDuty     float64 `json:"mean_activities_per_duty"`
	StdDevActivitiesPerDuty   float64 `json:"stddev_activities_per_duty"`
	MeanDutySpan              float64 `json:"mean_duty_span"`
}

// Summarize computes the Summary of sol.
func Summarize(sol model.Solution) Summary {
	ps := sol.Pairings
	s := Summary{
		Pairings:                  len(ps),
		Duties:                    Duties(ps),
		DutiesCountingSingleTwice: DutiesCountingSingleTwice(ps),
		Layovers:                  Layovers(ps),
		MaxDeadheadsPerDuty:       MaxDeadheadsPerDuty(ps),
		MaxDeadheadRunPerDuty:     MaxDeadheadRunPerDuty(ps),
		MaxActivitiesPerDuty:      MaxActivitiesPerDuty(ps),
		MaxWorkActivitiesPerDuty:  MaxWorkActivitiesPerDuty(ps),
	}
	var sizes, spans []float64
	for _, p := range ps {
		for _, d := range p {
			s.Deadheads += Deadheads(d)
			sizes = append(sizes, float64(len(d)))
			spans = append(spans, float64(d.Span()))
		}
	}
	if len(sizes) > 0 {
		s.MeanActivitiesPerDuty, s.StdDevActivitiesPerDuty = stat.PopMeanStdDev(sizes, nil)
		s.MeanDutySpan = stat.Mean(spans, nil)
	}
	return s
}
