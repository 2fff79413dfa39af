package scenarios

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/cspbc/core/instance"
	coremetrics "github.com/kilianp07/cspbc/core/metrics"
	"github.com/kilianp07/cspbc/core/solution"
	"github.com/kilianp07/cspbc/core/validation"
	"github.com/kilianp07/cspbc/infra/logger"
	"github.com/kilianp07/cspbc/infra/metrics"
)

// RunScenario checks the scenario's solution and compares the report, and
// the metrics it produces, with the expected verdict.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	name := sc.InstanceName
	if name == "" {
		name = "scenario"
	}
	inst, err := instance.Parse(name, strings.NewReader(sc.Instance))
	if err != nil {
		t.Fatalf("instance: %v", err)
	}

	sol, err := solution.Decode(strings.NewReader(sc.Solution), inst)
	if sc.Expected.ParseError != "" {
		if err == nil {
			t.Fatalf("scenario %s expected parse error %q", sc.Name, sc.Expected.ParseError)
		}
		if !strings.Contains(err.Error(), sc.Expected.ParseError) {
			t.Errorf("scenario %s: error %q does not contain %q", sc.Name, err, sc.Expected.ParseError)
		}
		_ = sink.RecordParseFailure(coremetrics.ParseFailureEvent{Stage: "solution", Err: err.Error(), Time: time.Now()})
		if n, err := testutil.GatherAndCount(reg, "cspbc_parse_failures_total"); err != nil || n != 1 {
			t.Errorf("scenario %s: parse failure series %d (%v)", sc.Name, n, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("solution: %v", err)
	}

	start := time.Now()
	rep := validation.NewChecker(logger.NopLogger{}).CheckSolution(inst, sol, sc.CrewMembers)
	counts := make(map[string]int)
	for k, n := range rep.CountByKind() {
		counts[string(k)] = n
	}
	if err := sink.RecordCheck(coremetrics.CheckEvent{
		Instance:    inst.Name,
		Activities:  inst.NumberOfActivities,
		CrewMembers: sc.CrewMembers,
		Pairings:    len(sol.Pairings),
		Feasible:    rep.Feasible,
		Cost:        rep.Cost,
		Violations:  counts,
		Objective:   -1,
		Duration:    time.Since(start),
		Time:        start,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if rep.Feasible != sc.Expected.Feasible {
		t.Errorf("scenario %s expected feasible=%v, got %v (%v)", sc.Name, sc.Expected.Feasible, rep.Feasible, rep.Violations)
	}
	if rep.Cost != sc.Expected.Cost {
		t.Errorf("scenario %s expected cost %d, got %d", sc.Name, sc.Expected.Cost, rep.Cost)
	}
	got := kindNames(rep.Kinds())
	want := append([]string(nil), sc.Expected.Violations...)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("scenario %s expected violations %v, got %v", sc.Name, want, got)
	}

	series, err := testutil.GatherAndCount(reg, "cspbc_violations_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if series != len(want) {
		t.Errorf("scenario %s: %d violation series, want %d", sc.Name, series, len(want))
	}
}

func kindNames(kinds []validation.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
