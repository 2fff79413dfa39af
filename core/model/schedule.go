package model

// Duty is one continuous shift: activities in chronological order.
type Duty []Activity

// First returns the opening activity. The duty must not be empty.
func (d Duty) First() Activity { return d[0] }

// Last returns the closing activity. The duty must not be empty.
func (d Duty) Last() Activity { return d[len(d)-1] }

// Span is the wall-clock length of the duty in minutes.
func (d Duty) Span() int {
	if len(d) == 0 {
		return 0
	}
	return d.Last().EndPeriod - d.First().StartPeriod
}

// Pairing is the assignment of one crew member: one or two duties separated
// by an overnight layover.
type Pairing []Duty

// Layovers returns the number of duty boundaries in the pairing.
func (p Pairing) Layovers() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Solution is one pairing per crew member for a named instance.
type Solution struct {
	InstanceName string
	Pairings     []Pairing
}

// Activities returns every activity of the solution in file order.
func (s Solution) Activities() []Activity {
	var out []Activity
	for _, p := range s.Pairings {
		for _, d := range p {
			out = append(out, d...)
		}
	}
	return out
}
