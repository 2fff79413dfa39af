// Package validation checks duties, pairings and complete solutions against
// the operational rules of an instance. Checks never stop at the first
// violation: every rule is evaluated and every violation is reported, and
// the connection cost is accumulated for the whole structure.
package validation

import (
	"github.com/kilianp07/cspbc/core/instance"
	"github.com/kilianp07/cspbc/core/model"
)

// MaxDutiesPerPairing bounds the number of duties in one pairing.
const MaxDutiesPerPairing = 2

const (
	minLayover = instance.MinLayoverPeriods
	maxLayover = instance.MaxLayoverPeriods
)

// CheckDuty verifies the connections and the work time of one duty.
// Activities are expected in chronological order.
func CheckDuty(inst *instance.Instance, duty model.Duty) Report {
	rep := newReport()
	if len(duty) == 0 {
		rep.add(Violation{Kind: KindEmptyDuty, Pairing: NoPosition, Duty: NoPosition})
		return rep
	}

	deadheadPeriods := 0
	for k, act := range duty {
		if !act.IsWork() {
			deadheadPeriods += act.Periods()
		}
		if k == 0 {
			continue
		}
		prev := duty[k-1]
		cost, ok := inst.Cost(prev.Index, act.Index)
		if !ok {
			from, to := prev, act
			rep.add(Violation{Kind: KindInfeasibleConnection, Pairing: NoPosition, Duty: NoPosition, From: &from, To: &to})
			continue
		}
		rep.Cost += cost
		// idle time before a deadhead is traveled, not worked
		if !act.IsWork() {
			deadheadPeriods += act.StartPeriod - prev.EndPeriod
		}
	}

	workTime := duty.Span() - deadheadPeriods
	rep.MaxWorkTime = workTime
	if workTime > inst.MaxWorkPeriods {
		rep.add(Violation{Kind: KindWorkTimeExceeded, Pairing: NoPosition, Duty: NoPosition, Value: workTime, Limit: inst.MaxWorkPeriods})
	}
	return rep
}

// CheckPairing checks every duty of the pairing and the layover rules
// between consecutive duties. The layover itself adds no cost.
func CheckPairing(inst *instance.Instance, pairing model.Pairing) Report {
	rep := newReport()
	if len(pairing) == 0 {
		rep.add(Violation{Kind: KindEmptyPairing, Pairing: NoPosition, Duty: NoPosition})
		return rep
	}
	if len(pairing) > MaxDutiesPerPairing {
		rep.add(Violation{Kind: KindTooManyDuties, Pairing: NoPosition, Duty: NoPosition, Value: len(pairing), Limit: MaxDutiesPerPairing})
	}

	for k, duty := range pairing {
		dr := CheckDuty(inst, duty)
		locate(dr.Violations, NoPosition, k)
		rep.merge(dr)

		if k == 0 {
			continue
		}
		prev := pairing[k-1]
		if len(prev) == 0 || len(duty) == 0 {
			continue
		}
		end := prev.Last().EndPeriod
		if end <= instance.LayoverStartPeriod {
			rep.add(Violation{Kind: KindLayoverTooEarly, Pairing: NoPosition, Duty: k - 1, Value: end, Limit: instance.LayoverStartPeriod})
		}
		if rest := LayoverConnectionTime(prev, duty); rest < minLayover || rest > maxLayover {
			limit := minLayover
			if rest > maxLayover {
				limit = maxLayover
			}
			rep.add(Violation{Kind: KindLayoverDuration, Pairing: NoPosition, Duty: k, Value: rest, Limit: limit})
		}
	}
	return rep
}

// CheckPairings checks a complete solution: one pairing per crew member.
func CheckPairings(inst *instance.Instance, pairings []model.Pairing, crewMembers int) Report {
	rep := newReport()
	if len(pairings) != crewMembers {
		rep.add(Violation{Kind: KindCrewCount, Pairing: NoPosition, Duty: NoPosition, Value: len(pairings), Limit: crewMembers})
	}
	for k, p := range pairings {
		pr := CheckPairing(inst, p)
		locate(pr.Violations, k, NoPosition)
		rep.merge(pr)
	}
	return rep
}

// LayoverConnectionTime is the overnight rest between two duties.
func LayoverConnectionTime(prev, next model.Duty) int {
	return instance.DayPeriods + next.First().StartPeriod - prev.Last().EndPeriod
}

// DutyWorkTime returns the work time of a duty assuming every connection is
// feasible: the span minus deadhead durations and the idle time before each
// deadhead.
func DutyWorkTime(duty model.Duty) int {
	deadheadPeriods := 0
	for k, act := range duty {
		if act.IsWork() {
			continue
		}
		deadheadPeriods += act.Periods()
		if k > 0 {
			deadheadPeriods += act.StartPeriod - duty[k-1].EndPeriod
		}
	}
	return duty.Span() - deadheadPeriods
}
