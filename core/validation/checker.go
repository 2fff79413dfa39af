package validation

import (
	"github.com/kilianp07/cspbc/core/instance"
	"github.com/kilianp07/cspbc/core/logger"
	"github.com/kilianp07/cspbc/core/model"
)

// Checker runs the checks and reports every violation on its logger as it
// is found.
type Checker struct {
	log logger.Logger
}

// NewChecker returns a Checker logging on l. A nil logger discards output.
func NewChecker(l logger.Logger) *Checker {
	return &Checker{log: logger.OrNop(l)}
}

// CheckDuty is CheckDuty with logging.
func (c *Checker) CheckDuty(inst *instance.Instance, duty model.Duty) Report {
	return c.emit(inst, CheckDuty(inst, duty))
}

// CheckPairing is CheckPairing with logging.
func (c *Checker) CheckPairing(inst *instance.Instance, pairing model.Pairing) Report {
	return c.emit(inst, CheckPairing(inst, pairing))
}

// CheckSolution checks sol against inst for the given crew size.
func (c *Checker) CheckSolution(inst *instance.Instance, sol model.Solution, crewMembers int) Report {
	rep := c.emit(inst, CheckPairings(inst, sol.Pairings, crewMembers))
	c.log.Debugw("solution checked", map[string]any{
		"instance":     inst.Name,
		"pairings":     len(sol.Pairings),
		"crew_members": crewMembers,
		"feasible":     rep.Feasible,
		"cost":         rep.Cost,
		"violations":   len(rep.Violations),
	})
	return rep
}

func (c *Checker) emit(inst *instance.Instance, rep Report) Report {
	for _, v := range rep.Violations {
		c.log.Warnf("%s: %s", inst.Name, v)
	}
	return rep
}
