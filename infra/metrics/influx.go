package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/cspbc/core/metrics"
	"github.com/kilianp07/cspbc/infra/logger"
)

// InfluxConfig holds the connection settings of the InfluxDB sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes check events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCheck writes one "solution_check" point.
func (s *InfluxSink) RecordCheck(ev coremetrics.CheckEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	total := 0
	for _, n := range ev.Violations {
		total += n
	}
	p := write.NewPointWithMeasurement("solution_check").
		AddTag("instance", ev.Instance).
		AddTag("feasible", strconv.FormatBool(ev.Feasible)).
		AddTag("crew_members", strconv.Itoa(ev.CrewMembers))
	if ev.Variant != "" {
		p = p.AddTag("variant", ev.Variant)
	}
	if ev.RunID != "" {
		p = p.AddTag("run_id", ev.RunID)
	}
	p = p.AddField("cost", ev.Cost).
		AddField("pairings", ev.Pairings).
		AddField("activities", ev.Activities).
		AddField("violations", total).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	if ev.Objective > 0 {
		p = p.AddField("objective", ev.Objective).
			AddField("gap", round3(float64(ev.Cost-ev.Objective)/float64(ev.Objective)))
	}
	return s.writeAPI.WritePoint(ctx, p.SetTime(ev.Time))
}

// RecordParseFailure writes a "parse_failure" point.
func (s *InfluxSink) RecordParseFailure(ev coremetrics.ParseFailureEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("parse_failure").
		AddTag("stage", ev.Stage).
		AddField("path", ev.Path).
		AddField("error", ev.Err).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordBatch writes a "batch_run" point.
func (s *InfluxSink) RecordBatch(ev coremetrics.BatchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("batch_run").
		AddTag("batch", ev.Name).
		AddTag("run_id", ev.RunID).
		AddField("jobs", ev.Jobs).
		AddField("feasible", ev.Feasible).
		AddField("failed", ev.Failed).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
