package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/cspbc/core/metrics"
)

// PromSink records solution checks in Prometheus metrics.
type PromSink struct {
	checks     *prometheus.CounterVec
	violations *prometheus.CounterVec
	cost       *prometheus.GaugeVec
	gap        *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	failures   *prometheus.CounterVec
	batchJobs  *prometheus.GaugeVec
	batchTime  *prometheus.GaugeVec
}

// NewPromSink registers check metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.checks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cspbc_checks_total",
		Help: "Number of checked solutions",
	}, []string{"instance", "variant", "feasible"})); err != nil {
		return nil, err
	}
	if s.violations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cspbc_violations_total",
		Help: "Constraint violations found, by kind",
	}, []string{"kind"})); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cspbc_solution_cost",
		Help: "Total connection cost of the last checked solution",
	}, []string{"instance", "variant", "crew"})); err != nil {
		return nil, err
	}
	if s.gap, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cspbc_objective_gap_ratio",
		Help: "Relative gap between the solution cost and the published objective",
	}, []string{"instance", "variant", "crew"})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cspbc_check_duration_seconds",
		Help:    "Time spent reading and checking a solution",
		Buckets: prometheus.DefBuckets,
	}, []string{"instance"})); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cspbc_parse_failures_total",
		Help: "Instance or solution files that could not be read",
	}, []string{"stage"})); err != nil {
		return nil, err
	}
	if s.batchJobs, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cspbc_batch_jobs",
		Help: "Jobs of the last batch run by outcome",
	}, []string{"batch", "outcome"})); err != nil {
		return nil, err
	}
	if s.batchTime, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cspbc_batch_duration_seconds",
		Help: "Wall time of the last batch run",
	}, []string{"batch"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCheck updates counters and gauges for one checked solution.
func (s *PromSink) RecordCheck(ev coremetrics.CheckEvent) error {
	s.checks.WithLabelValues(ev.Instance, ev.Variant, strconv.FormatBool(ev.Feasible)).Inc()
	for kind, n := range ev.Violations {
		s.violations.WithLabelValues(kind).Add(float64(n))
	}
	crew := strconv.Itoa(ev.CrewMembers)
	s.cost.WithLabelValues(ev.Instance, ev.Variant, crew).Set(float64(ev.Cost))
	if ev.Objective > 0 {
		s.gap.WithLabelValues(ev.Instance, ev.Variant, crew).
			Set(float64(ev.Cost-ev.Objective) / float64(ev.Objective))
	}
	s.duration.WithLabelValues(ev.Instance).Observe(ev.Duration.Seconds())
	return nil
}

// RecordParseFailure counts unreadable files per stage.
func (s *PromSink) RecordParseFailure(ev coremetrics.ParseFailureEvent) error {
	s.failures.WithLabelValues(ev.Stage).Inc()
	return nil
}

// RecordBatch publishes the outcome of a batch run.
func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.batchJobs.WithLabelValues(ev.Name, "feasible").Set(float64(ev.Feasible))
	s.batchJobs.WithLabelValues(ev.Name, "infeasible").Set(float64(ev.Jobs - ev.Feasible - ev.Failed))
	s.batchJobs.WithLabelValues(ev.Name, "failed").Set(float64(ev.Failed))
	s.batchTime.WithLabelValues(ev.Name).Set(ev.Duration.Seconds())
	return nil
}
