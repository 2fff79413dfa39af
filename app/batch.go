package app

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	coremetrics "github.com/kilianp07/cspbc/core/metrics"
	coremon "github.com/kilianp07/cspbc/core/monitoring"
	"github.com/kilianp07/cspbc/core/reportlog"
	"github.com/kilianp07/cspbc/internal/eventbus"
)

// Outcome is the result of one batch job.
type Outcome struct {
	Index  int
	Job    Job
	Record reportlog.Record
	Err    error
}

// BatchResult summarizes a batch run. Records are in job order.
type BatchResult struct {
	RunID    string
	Name     string
	Records  []reportlog.Record
	Errors   []error
	Feasible int
	Failed   int
	Duration time.Duration
}

// RunBatch checks every job of m on a worker pool. Job failures are
// collected in the result; the returned error is only set when ctx ends the
// run early, in which case the result holds the jobs completed so far.
func (s *Service) RunBatch(ctx context.Context, m Manifest) (BatchResult, error) {
	if err := m.Validate(); err != nil {
		return BatchResult{}, err
	}
	workers := m.Workers
	if workers <= 0 {
		workers = s.cfg.Batch.Workers
	}
	workers = max(1, min(workers, len(m.Jobs)))

	res := BatchResult{
		RunID:   s.newID(),
		Name:    m.Name,
		Records: make([]reportlog.Record, len(m.Jobs)),
		Errors:  make([]error, len(m.Jobs)),
	}
	start := s.now()
	s.log.Infof("batch %s: %d jobs on %d workers (run %s)", m.Name, len(m.Jobs), workers, res.RunID)

	bus := eventbus.NewTyped[Outcome]()
	collected := bus.Subscribe(workers)
	var progress <-chan Outcome
	if s.progress != nil {
		progress = bus.Subscribe(workers)
	}

	var consumers sync.WaitGroup
	consumers.Add(1)
	go func() {
		defer consumers.Done()
		for o := range collected {
			res.Records[o.Index] = o.Record
			res.Errors[o.Index] = o.Err
			switch {
			case o.Err != nil:
				res.Failed++
			case o.Record.Feasible():
				res.Feasible++
			}
		}
	}()
	if progress != nil {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for o := range progress {
				s.progress(o)
			}
		}()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				o := s.runJob(ctx, res.RunID, i, m.Jobs[i])
				if err := bus.Publish(ctx, o); err != nil {
					return
				}
			}
		}()
	}

feed:
	for i := range m.Jobs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	bus.Close()
	consumers.Wait()

	res.Duration = s.now().Sub(start)
	if rec, ok := s.sink.(coremetrics.BatchRecorder); ok {
		if err := rec.RecordBatch(coremetrics.BatchEvent{
			RunID:    res.RunID,
			Name:     m.Name,
			Jobs:     len(m.Jobs),
			Feasible: res.Feasible,
			Failed:   res.Failed,
			Duration: res.Duration,
			Time:     start,
		}); err != nil {
			s.log.Warnf("record batch metrics: %v", err)
		}
	}
	s.log.Infof("batch %s: %d feasible, %d failed, %d infeasible in %s",
		m.Name, res.Feasible, res.Failed, len(m.Jobs)-res.Feasible-res.Failed, res.Duration)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Service) runJob(ctx context.Context, runID string, i int, job Job) (o Outcome) {
	o = Outcome{Index: i, Job: job}
	defer func() {
		if err := coremon.CapturePanic(recover(), map[string]string{"job": job.Label(), "index": strconv.Itoa(i)}); err != nil {
			s.log.Errorf("job %s panicked: %v", job.Label(), err)
			o.Err = err
		}
	}()
	o.Record, o.Err = s.checkJob(ctx, runID, job)
	return o
}

// FirstError returns the first job error in job order.
func (r BatchResult) FirstError() error {
	for _, err := range r.Errors {
		if err != nil {
			return err
		}
	}
	return nil
}

// Err joins every job error.
func (r BatchResult) Err() error {
	return errors.Join(r.Errors...)
}
