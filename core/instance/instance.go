// Package instance parses crew scheduling instances and exposes the
// connection-cost graph between their activities.
package instance

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/cspbc/core/model"
)

const (
	// DayPeriods is the number of minutes in a day.
	DayPeriods = 1440
	// MinLayoverPeriods is the minimum overnight rest.
	MinLayoverPeriods = 480
	// MaxLayoverPeriods is the maximum overnight rest.
	MaxLayoverPeriods = 600
	// LayoverStartPeriod is the minute after which a layover may begin.
	LayoverStartPeriod = 1200
	// EarliestStartAfterLayover is LayoverStartPeriod + MinLayoverPeriods - DayPeriods.
	EarliestStartAfterLayover = LayoverStartPeriod + MinLayoverPeriods - DayPeriods
)

// ErrFormat is wrapped by every ParseError.
var ErrFormat = errors.New("malformed instance file")

// ParseError locates a format problem in an instance file.
type ParseError struct {
	Name string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("instance %s line %d: %s", e.Name, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrFormat }

// Instance is an immutable parsed problem instance.
type Instance struct {
	Name               string
	NumberOfActivities int
	MaxWorkPeriods     int
	Activities         []model.Activity
	LastEndPeriod      int

	EarliestStartAfterLayover int
	LatestStartAfterLayover   int

	startAfterLayover map[model.Activity]struct{}

	// connectionCosts[i][j] is the cost of doing j right after i.
	connectionCosts []map[int]int
	// connectionCostsReversed[j][i] mirrors connectionCosts[i][j].
	connectionCostsReversed []map[int]int
	connections             int
}

// Load parses the instance file at path. The instance is named after the
// file without its extension.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(NameFromPath(path), f)
}

// NameFromPath strips directory and extension from an instance path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse reads an instance from r.
//
//gocyclo:ignore
func Parse(name string, r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	line := 0
	fail := func(format string, args ...any) error {
		return &ParseError{Name: name, Line: line, Msg: fmt.Sprintf(format, args...)}
	}
	next := func() ([]int, bool, error) {
		for sc.Scan() {
			line++
			fields := strings.Fields(sc.Text())
			if len(fields) == 0 {
				continue
			}
			vals := make([]int, len(fields))
			for i, f := range fields {
				v, err := strconv.Atoi(f)
				if err != nil {
					return nil, false, fail("not an integer: %q", f)
				}
				vals[i] = v
			}
			return vals, true, nil
		}
		return nil, false, sc.Err()
	}

	header, ok, err := next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fail("missing header")
	}
	if len(header) != 2 {
		return nil, fail("header needs 2 values, got %d", len(header))
	}
	n, maxWork := header[0], header[1]
	if n < 0 {
		return nil, fail("negative number of activities %d", n)
	}

	inst := &Instance{
		Name:                    name,
		NumberOfActivities:      n,
		MaxWorkPeriods:          maxWork,
		Activities:              make([]model.Activity, 0, n),
		connectionCosts:         make([]map[int]int, n),
		connectionCostsReversed: make([]map[int]int, n),
	}
	for i := 0; i < n; i++ {
		vals, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fail("expected %d activities, got %d", n, i)
		}
		if len(vals) != 2 {
			return nil, fail("activity needs 2 values, got %d", len(vals))
		}
		if vals[1] < vals[0] {
			return nil, fail("activity %d ends before it starts", i+1)
		}
		inst.Activities = append(inst.Activities, model.NewWork(i, vals[0], vals[1]))
		inst.LastEndPeriod = max(inst.LastEndPeriod, vals[1])
		inst.connectionCosts[i] = make(map[int]int)
		inst.connectionCostsReversed[i] = make(map[int]int)
	}

	for {
		vals, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if len(vals) != 3 {
			return nil, fail("connection needs 3 values, got %d", len(vals))
		}
		from, to := vals[0]-1, vals[1]-1
		if from < 0 || from >= n || to < 0 || to >= n {
			return nil, fail("connection %d -> %d out of range [1,%d]", vals[0], vals[1], n)
		}
		if _, dup := inst.connectionCosts[from][to]; !dup {
			inst.connections++
		}
		inst.connectionCosts[from][to] = vals[2]
		inst.connectionCostsReversed[to][from] = vals[2]
	}

	inst.deriveLayoverWindow()
	return inst, nil
}

func (inst *Instance) deriveLayoverWindow() {
	inst.EarliestStartAfterLayover = EarliestStartAfterLayover
	inst.LatestStartAfterLayover = inst.LastEndPeriod + MaxLayoverPeriods - DayPeriods
	inst.startAfterLayover = make(map[model.Activity]struct{})
	for _, a := range inst.Activities {
		if a.StartPeriod >= inst.EarliestStartAfterLayover && a.StartPeriod <= inst.LatestStartAfterLayover {
			inst.startAfterLayover[a] = struct{}{}
		}
	}
}

// WorkActivity returns the worked activity with 0-based index i.
func (inst *Instance) WorkActivity(i int) (model.Activity, error) {
	if i < 0 || i >= len(inst.Activities) {
		return model.Activity{}, fmt.Errorf("activity index %d out of range [0,%d)", i, len(inst.Activities))
	}
	return inst.Activities[i], nil
}

// DeadheadActivity returns the deadhead variant of activity i.
func (inst *Instance) DeadheadActivity(i int) (model.Activity, error) {
	a, err := inst.WorkActivity(i)
	if err != nil {
		return model.Activity{}, err
	}
	return a.AsDeadhead(), nil
}

// Cost returns the cost of connecting activity i directly to activity j.
// The boolean is false when the connection is infeasible.
func (inst *Instance) Cost(i, j int) (int, bool) {
	if i < 0 || i >= len(inst.connectionCosts) {
		return 0, false
	}
	c, ok := inst.connectionCosts[i][j]
	return c, ok
}

// ReversedCost looks the edge i -> j up through the reversed index of j.
func (inst *Instance) ReversedCost(j, i int) (int, bool) {
	if j < 0 || j >= len(inst.connectionCostsReversed) {
		return 0, false
	}
	c, ok := inst.connectionCostsReversed[j][i]
	return c, ok
}

// Successors returns a copy of the outgoing edges of i keyed by destination.
func (inst *Instance) Successors(i int) map[int]int {
	return copyEdges(inst.connectionCosts, i)
}

// Predecessors returns a copy of the incoming edges of j keyed by source.
func (inst *Instance) Predecessors(j int) map[int]int {
	return copyEdges(inst.connectionCostsReversed, j)
}

func copyEdges(adj []map[int]int, i int) map[int]int {
	if i < 0 || i >= len(adj) {
		return nil
	}
	out := make(map[int]int, len(adj[i]))
	for k, v := range adj[i] {
		out[k] = v
	}
	return out
}

// NumberOfConnections returns the number of distinct directed edges.
func (inst *Instance) NumberOfConnections() int { return inst.connections }

// IsStartAfterLayover reports whether a may open a duty that follows a layover.
func (inst *Instance) IsStartAfterLayover(a model.Activity) bool {
	_, ok := inst.startAfterLayover[a]
	return ok
}

// StartAfterLayoverActivities returns the activities that may open a
// post-layover duty, in index order.
func (inst *Instance) StartAfterLayoverActivities() []model.Activity {
	out := make([]model.Activity, 0, len(inst.startAfterLayover))
	for _, a := range inst.Activities {
		if _, ok := inst.startAfterLayover[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Loader resolves an instance by name.
type Loader interface {
	Load(name string) (*Instance, error)
}

// DirLoader loads "<Dir>/<name>.txt".
type DirLoader struct {
	Dir string
}

// Load implements Loader.
func (l DirLoader) Load(name string) (*Instance, error) {
	dir := l.Dir
	if dir == "" {
		dir = "."
	}
	return Load(filepath.Join(dir, name+".txt"))
}
