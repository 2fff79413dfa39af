// Package app wires configuration, checking, report storage and metrics into
// the operations exposed by the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/cspbc/config"
	"github.com/kilianp07/cspbc/core/benchmark"
	"github.com/kilianp07/cspbc/core/instance"
	coremetrics "github.com/kilianp07/cspbc/core/metrics"
	coremon "github.com/kilianp07/cspbc/core/monitoring"
	"github.com/kilianp07/cspbc/core/reportlog"
	"github.com/kilianp07/cspbc/core/solution"
	"github.com/kilianp07/cspbc/core/stats"
	"github.com/kilianp07/cspbc/core/validation"
	"github.com/kilianp07/cspbc/infra/logger"
	"github.com/kilianp07/cspbc/infra/metrics"
	"github.com/kilianp07/cspbc/infra/monitoring"
)

// Service checks solutions and keeps track of the results.
type Service struct {
	cfg      *config.Config
	log      logger.Logger
	checker  *validation.Checker
	loader   *cachedLoader
	results  *benchmark.Results
	store    reportlog.Store
	sink     coremetrics.MetricsSink
	progress func(Outcome)
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger replaces the zerolog logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithStore replaces the store opened from cfg.Reports.
func WithStore(st reportlog.Store) Option { return func(s *Service) { s.store = st } }

// WithSink replaces the sinks built from cfg.Metrics.
func WithSink(sink coremetrics.MetricsSink) Option { return func(s *Service) { s.sink = sink } }

// WithResults replaces the table loaded from cfg.ResultsFile.
func WithResults(r *benchmark.Results) Option { return func(s *Service) { s.results = r } }

// WithProgress registers a callback receiving every batch outcome as it completes.
func WithProgress(fn func(Outcome)) Option { return func(s *Service) { s.progress = fn } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New builds a Service from cfg. Components not provided through options are
// created from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Service{cfg: cfg, now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	s.checker = validation.NewChecker(s.log)
	s.loader = newCachedLoader(instance.DirLoader{Dir: cfg.InstancesDir})

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if s.results == nil && cfg.ResultsFile != "" {
		if s.results, err = benchmark.LoadResults(cfg.ResultsFile); err != nil {
			return nil, fmt.Errorf("results table: %w", err)
		}
	}
	if s.sink == nil {
		if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if s.store == nil {
		if s.store, err = reportlog.Open(cfg.Reports); err != nil {
			_ = s.closeSink()
			return nil, fmt.Errorf("report store: %w", err)
		}
	}
	return s, nil
}

// ServeMetrics exposes /metrics until ctx is done when a prometheus sink and
// an address are configured. It returns immediately otherwise.
func (s *Service) ServeMetrics(ctx context.Context) {
	addr := s.cfg.Metrics.PrometheusAddr
	if addr == "" || !s.cfg.Metrics.HasSink("prometheus") {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, addr); err != nil {
			s.log.Errorf("prom server: %v", err)
			coremon.CaptureException(err, map[string]string{"module": "prom-server"})
		}
	}()
}

// CheckJob reads, checks and records one solution. Read failures are
// recorded too and returned as error together with the record.
func (s *Service) CheckJob(ctx context.Context, job Job) (reportlog.Record, error) {
	return s.checkJob(ctx, s.newID(), job)
}

func (s *Service) checkJob(ctx context.Context, runID string, job Job) (reportlog.Record, error) {
	if err := ctx.Err(); err != nil {
		return reportlog.Record{}, err
	}
	if err := job.Validate(); err != nil {
		return reportlog.Record{}, err
	}
	start := s.now()
	path := job.SolutionPath(s.cfg.SolutionsDir)
	rec := reportlog.Record{
		ID:           s.newID(),
		RunID:        runID,
		Timestamp:    start,
		Variant:      job.Variant,
		SolutionFile: path,
		CrewMembers:  job.CrewMembers,
		Objective:    -1,
	}

	var loader instance.Loader = s.loader
	if job.Instance != "" {
		loader = fileLoader(job.Instance)
	}
	sol, inst, err := solution.ReadFile(path, loader)
	if err != nil {
		return s.recordFailure(ctx, rec, job, err)
	}
	rec.Instance = inst.Name
	rec.Activities = inst.NumberOfActivities
	rec.Report = s.checker.CheckSolution(inst, sol, job.CrewMembers)
	rec.Stats = stats.Summarize(sol)
	if err := s.lookupObjective(&rec, job); err != nil {
		s.log.Warnf("%s: objective lookup: %v", job.Label(), err)
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return rec, fmt.Errorf("store report: %w", err)
	}
	counts := make(map[string]int)
	for k, n := range rec.Report.CountByKind() {
		counts[string(k)] = n
	}
	ev := coremetrics.CheckEvent{
		RunID:       runID,
		Instance:    rec.Instance,
		Variant:     rec.Variant,
		Activities:  rec.Activities,
		CrewMembers: rec.CrewMembers,
		Pairings:    len(sol.Pairings),
		Feasible:    rec.Report.Feasible,
		Cost:        rec.Report.Cost,
		Violations:  counts,
		Objective:   rec.Objective,
		Duration:    s.now().Sub(start),
		Time:        start,
	}
	if err := s.sink.RecordCheck(ev); err != nil {
		s.log.Warnf("record check metrics: %v", err)
	}
	s.log.Infof("%s: feasible=%t cost=%d violations=%d", job.Label(), rec.Report.Feasible, rec.Report.Cost, len(rec.Report.Violations))
	return rec, nil
}

func (s *Service) lookupObjective(rec *reportlog.Record, job Job) error {
	if s.results == nil || job.Variant == "" {
		return nil
	}
	v, err := benchmark.ParseVariant(job.Variant)
	if err != nil {
		return err
	}
	if rec.Objective, err = s.results.Objective(rec.Activities, job.CrewMembers, v); err != nil {
		rec.Objective = -1
		return err
	}
	rec.ClaimedOptimal, err = s.results.ClaimedOptimal(rec.Activities, job.CrewMembers, v)
	return err
}

func (s *Service) recordFailure(ctx context.Context, rec reportlog.Record, job Job, cause error) (reportlog.Record, error) {
	stage := "solution"
	if errors.Is(cause, instance.ErrFormat) {
		stage = "instance"
	}
	rec.Instance = job.instanceHint()
	rec.Error = cause.Error()
	s.log.Errorf("%s: %v", job.Label(), cause)
	coremon.CaptureException(cause, map[string]string{"stage": stage, "file": rec.SolutionFile})
	if pf, ok := s.sink.(coremetrics.ParseFailureRecorder); ok {
		if rerr := pf.RecordParseFailure(coremetrics.ParseFailureEvent{
			Path: rec.SolutionFile, Stage: stage, Err: rec.Error, Time: rec.Timestamp,
		}); rerr != nil {
			s.log.Warnf("record parse failure: %v", rerr)
		}
	}
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("store failed report: %v", err)
	}
	return rec, fmt.Errorf("%s: %w", job.Label(), cause)
}

func (j Job) instanceHint() string {
	switch {
	case j.Instance != "":
		return instance.NameFromPath(j.Instance)
	case j.Activities > 0:
		return benchmark.InstanceName(j.Activities)
	default:
		return ""
	}
}

// Reports queries the report store.
func (s *Service) Reports(ctx context.Context, q reportlog.Query) ([]reportlog.Record, error) {
	return s.store.Query(ctx, q)
}

// Close flushes monitoring and releases the store and sinks.
func (s *Service) Close() error {
	defer coremon.Flush(2 * time.Second)
	err := s.store.Close()
	return errors.Join(err, s.closeSink())
}

func (s *Service) closeSink() error {
	if c, ok := s.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
