// Package format renders activities, duties and pairings for humans.
package format

import (
	"fmt"
	"strings"

	"github.com/kilianp07/cspbc/core/instance"
	"github.com/kilianp07/cspbc/core/model"
	"github.com/kilianp07/cspbc/core/validation"
)

// Activity renders a work activity in brackets and a deadhead in parentheses.
// IDs are 1-based as in the files.
func Activity(a model.Activity) string {
	if a.IsWork() {
		return fmt.Sprintf("[ID:%d S:%d WT:%d E:%d ]", a.Index+1, a.StartPeriod, a.Periods(), a.EndPeriod)
	}
	return fmt.Sprintf("(ID:%d S:%d WT:0 E:%d)", a.Index+1, a.StartPeriod, a.EndPeriod)
}

// Connection renders the link from a to b. With an instance the connection
// cost is included; "C:-" marks a missing edge.
func Connection(a, b model.Activity, inst *instance.Instance) string {
	if !b.IsWork() {
		return " - DC - "
	}
	cost := ""
	if inst != nil {
		if c, ok := inst.Cost(a.Index, b.Index); ok {
			cost = fmt.Sprintf(" C:%d", c)
		} else {
			cost = " C:-"
		}
	}
	return fmt.Sprintf(" - WC WT:%d%s - ", b.StartPeriod-a.EndPeriod, cost)
}

// Duty renders a duty with its work time, and its cost when inst is given.
func Duty(d model.Duty, inst *instance.Instance) string {
	var b strings.Builder
	b.WriteString("||  ")
	for k, a := range d {
		if k > 0 {
			b.WriteString(Connection(d[k-1], a, inst))
		}
		b.WriteString(Activity(a))
	}
	if inst == nil {
		fmt.Fprintf(&b, " | Total: WT: %d  ||", validation.DutyWorkTime(d))
		return b.String()
	}
	rep := validation.CheckDuty(inst, d)
	fmt.Fprintf(&b, " | Total: WT: %d Cost: %d ||", rep.MaxWorkTime, rep.Cost)
	return b.String()
}

// Pairing renders the duties of p separated by their layover time.
func Pairing(p model.Pairing, inst *instance.Instance) string {
	var b strings.Builder
	for k, d := range p {
		if k > 0 && len(p[k-1]) > 0 && len(d) > 0 {
			fmt.Fprintf(&b, " --- Layover with time %d --- ", validation.LayoverConnectionTime(p[k-1], d))
		}
		b.WriteString(Duty(d, inst))
	}
	return b.String()
}

// Solution renders one pairing per line, prefixed by its 1-based number.
func Solution(sol model.Solution, inst *instance.Instance) string {
	var b strings.Builder
	for k, p := range sol.Pairings {
		fmt.Fprintf(&b, "%3d: %s\n", k+1, Pairing(p, inst))
	}
	return b.String()
}
