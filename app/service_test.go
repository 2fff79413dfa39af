package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cspbc/config"
	"github.com/kilianp07/cspbc/core/benchmark"
	"github.com/kilianp07/cspbc/core/instance"
	coremetrics "github.com/kilianp07/cspbc/core/metrics"
	"github.com/kilianp07/cspbc/core/reportlog"
	"github.com/kilianp07/cspbc/core/validation"
	"github.com/kilianp07/cspbc/infra/logger"
)

// csp3: three activities, the third one starts after the layover window.
const csp3 = `3 1000
1000 1100
1150 1300
340 400
1 2 4
`

type recordSink struct {
	mu       sync.Mutex
	checks   []coremetrics.CheckEvent
	failures []coremetrics.ParseFailureEvent
	batches  []coremetrics.BatchEvent
}

func (r *recordSink) RecordCheck(ev coremetrics.CheckEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, ev)
	return nil
}

func (r *recordSink) RecordParseFailure(ev coremetrics.ParseFailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, ev)
	return nil
}

func (r *recordSink) RecordBatch(ev coremetrics.BatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, ev)
	return nil
}

type fixture struct {
	cfg  *config.Config
	sink *recordSink
	svc  *Service
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.InstancesDir = filepath.Join(root, "instances")
	cfg.SolutionsDir = filepath.Join(root, "solutions")
	cfg.Reports.Path = filepath.Join(root, "reports.jsonl")
	cfg.Batch.Workers = 2
	require.NoError(t, os.MkdirAll(cfg.InstancesDir, 0o755))
	require.NoError(t, os.MkdirAll(cfg.SolutionsDir, 0o755))

	writeFile(t, benchmark.InstanceFile(cfg.InstancesDir, 3), csp3)
	// feasible with one crew member
	writeFile(t, benchmark.SolutionFile(cfg.SolutionsDir, benchmark.VariantBase, 3, 1), "csp3\n1 2 L 3\n")
	// same pairings but two crew members announced
	writeFile(t, benchmark.SolutionFile(cfg.SolutionsDir, benchmark.VariantBase, 3, 2), "csp3\n1 2 L 3\n")
	// unknown token
	writeFile(t, benchmark.SolutionFile(cfg.SolutionsDir, benchmark.VariantDH, 3, 1), "csp3\n1 x 3\n")

	results, err := benchmark.ParseResults(strings.NewReader(
		"number_act;number_crew;base_obj;base_opt;dh_obj;dh_opt;dhl_obj;dhl_opt\n3;1;4;1;4;0;4;0\n"))
	require.NoError(t, err)

	sink := &recordSink{}
	base := []Option{WithLogger(logger.NopLogger{}), WithSink(sink), WithResults(results)}
	svc, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return &fixture{cfg: cfg, sink: sink, svc: svc}
}

func TestCheckJob_Feasible(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CheckJob(context.Background(), Job{Activities: 3, Variant: "base", CrewMembers: 1})
	require.NoError(t, err)

	assert.Equal(t, "csp3", rec.Instance)
	assert.Equal(t, 3, rec.Activities)
	assert.True(t, rec.Feasible())
	assert.Equal(t, 4, rec.Report.Cost)
	assert.Equal(t, 4, rec.Objective)
	assert.True(t, rec.ClaimedOptimal)
	assert.Equal(t, 1, rec.Stats.Layovers)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.RunID)

	require.Len(t, f.sink.checks, 1)
	ev := f.sink.checks[0]
	assert.True(t, ev.Feasible)
	assert.Equal(t, 1, ev.Pairings)
	assert.Equal(t, 4, ev.Objective)

	stored, err := f.svc.Reports(context.Background(), reportlog.Query{Instance: "csp3"})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rec.ID, stored[0].ID)
}

func TestCheckJob_CrewMismatch(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CheckJob(context.Background(), Job{Activities: 3, Variant: "base", CrewMembers: 2})
	require.NoError(t, err, "infeasibility is not an error")
	assert.False(t, rec.Feasible())
	assert.Equal(t, []validation.Kind{validation.KindCrewCount}, rec.Report.Kinds())
	assert.Equal(t, -1, rec.Objective, "no published row for two crew members")
	assert.Equal(t, map[string]int{"crew_count": 1}, f.sink.checks[0].Violations)
}

func TestCheckJob_ParseFailure(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.CheckJob(context.Background(), Job{Activities: 3, Variant: "dh", CrewMembers: 1})
	require.Error(t, err)
	assert.Contains(t, rec.Error, `token "x"`)
	assert.Equal(t, "csp3", rec.Instance)
	require.Len(t, f.sink.failures, 1)
	assert.Equal(t, "solution", f.sink.failures[0].Stage)

	stored, err := f.svc.Reports(context.Background(), reportlog.Query{InfeasibleOnly: true})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCheckJob_BadInstanceIsInstanceStage(t *testing.T) {
	f := newFixture(t)
	bad := filepath.Join(f.cfg.InstancesDir, "broken.txt")
	writeFile(t, bad, "2 100\n10 20\n")
	sol := filepath.Join(f.cfg.SolutionsDir, "broken_sol.txt")
	writeFile(t, sol, "broken\n1\n2\n")

	_, err := f.svc.CheckJob(context.Background(), Job{Solution: sol, CrewMembers: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, instance.ErrFormat))
	require.Len(t, f.sink.failures, 1)
	assert.Equal(t, "instance", f.sink.failures[0].Stage)
}

func TestCheckJob_ExplicitInstanceFile(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(t.TempDir(), "renamed.txt")
	writeFile(t, other, csp3)
	sol := benchmark.SolutionFile(f.cfg.SolutionsDir, benchmark.VariantBase, 3, 1)

	rec, err := f.svc.CheckJob(context.Background(), Job{Solution: sol, Instance: other, CrewMembers: 1})
	require.NoError(t, err)
	assert.Equal(t, "renamed", rec.Instance)
	assert.True(t, rec.Feasible())
	assert.Equal(t, -1, rec.Objective, "no variant, no lookup")
}

func TestCheckJob_InvalidJobAndContext(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CheckJob(context.Background(), Job{Activities: 3, Variant: "base"})
	assert.ErrorContains(t, err, "crew_members")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.CheckJob(ctx, Job{Activities: 3, Variant: "base", CrewMembers: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.sink.checks)
}

func TestNew_FromConfig(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Reports.Backend = "sqlite"
	cfg.Reports.Path = "file:app_test.db?mode=memory&cache=shared"
	cfg.ResultsFile = filepath.Join(root, "missing.csv")
	_, err := New(cfg, WithLogger(logger.NopLogger{}))
	assert.ErrorContains(t, err, "results table")

	cfg.ResultsFile = ""
	svc, err := New(cfg, WithLogger(logger.NopLogger{}), WithClock(func() time.Time { return time.Unix(0, 0) }))
	require.NoError(t, err)
	_, isSQLite := svc.store.(*reportlog.SQLiteStore)
	assert.True(t, isSQLite)
	assert.IsType(t, coremetrics.NopSink{}, svc.sink)
	require.NoError(t, svc.Close())
}
