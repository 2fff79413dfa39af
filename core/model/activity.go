package model

import (
	"fmt"
	"strings"
)

// ActivityType tells whether an activity slot is worked or only traveled through.
type ActivityType uint8

const (
	// Work is the zero value: activities parsed from an instance are worked.
	Work ActivityType = iota
	Deadhead
)

// String returns the lowercase name used in reports.
func (t ActivityType) String() string {
	switch t {
	case Work:
		return "work"
	case Deadhead:
		return "deadhead"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name.
func (t ActivityType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes "work" or "deadhead".
func (t *ActivityType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "work":
		*t = Work
	case "deadhead":
		*t = Deadhead
	default:
		return fmt.Errorf("unknown activity type %q", string(b))
	}
	return nil
}

// Activity is a scheduled interval of an instance. Values are immutable and
// comparable with ==, so they can be used as map keys.
type Activity struct {
	Index       int          `json:"index"`        // 0-based position in the instance
	StartPeriod int          `json:"start_period"` // minute of the day
	EndPeriod   int          `json:"end_period"`   // minute of the day, >= StartPeriod
	Type        ActivityType `json:"type"`
}

// NewWork returns the worked variant of a slot.
func NewWork(index, start, end int) Activity {
	return Activity{Index: index, StartPeriod: start, EndPeriod: end, Type: Work}
}

// AsDeadhead returns the same slot traveled without work credit.
func (a Activity) AsDeadhead() Activity {
	a.Type = Deadhead
	return a
}

// IsWork reports whether the activity earns work credit.
func (a Activity) IsWork() bool { return a.Type == Work }

// Periods returns the duration of the activity in minutes.
func (a Activity) Periods() int { return a.EndPeriod - a.StartPeriod }

// Compare orders activities by index, start, end and type. It returns -1, 0
// or +1 like cmp.Compare.
func (a Activity) Compare(b Activity) int {
	switch {
	case a.Index != b.Index:
		return sign(a.Index - b.Index)
	case a.StartPeriod != b.StartPeriod:
		return sign(a.StartPeriod - b.StartPeriod)
	case a.EndPeriod != b.EndPeriod:
		return sign(a.EndPeriod - b.EndPeriod)
	default:
		return sign(int(a.Type) - int(b.Type))
	}
}

// Less reports whether a sorts before b.
func (a Activity) Less(b Activity) bool { return a.Compare(b) < 0 }

func (a Activity) String() string {
	return fmt.Sprintf("Activity(index=%d, start=%d, end=%d, %s)", a.Index, a.StartPeriod, a.EndPeriod, a.Type)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
