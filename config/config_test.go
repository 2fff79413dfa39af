package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `instances_dir: "data/instances"
solutions_dir: "data/solutions"
results_file: "data/results_derigs_schaefer.csv"
reports:
  backend: "rotating"
  path: "out/reports.jsonl"
  max_backups: 3
metrics:
  prometheus_addr: ":2112"
  sinks:
    - type: "prometheus"
    - type: "mqtt"
      conf:
        broker: "tcp://localhost:1883"
sentry:
  traces_sample_rate: 0.5
batch:
  workers: 4
log:
  level: "debug"
api:
  addr: "127.0.0.1:9090"
  token: "secret"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"instances_dir", cfg.InstancesDir, "data/instances"},
		{"solutions_dir", cfg.SolutionsDir, "data/solutions"},
		{"results_file", cfg.ResultsFile, "data/results_derigs_schaefer.csv"},
		{"reports.backend", cfg.Reports.Backend, "rotating"},
		{"reports.path", cfg.Reports.Path, "out/reports.jsonl"},
		{"reports.max_backups", cfg.Reports.MaxBackups, 3},
		{"reports.max_size_mb", cfg.Reports.MaxSizeMB, 10},
		{"metrics.sinks", len(cfg.Metrics.Sinks), 2},
		{"metrics.mqtt", cfg.Metrics.Sinks[1].Conf["broker"], "tcp://localhost:1883"},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":2112"},
		{"sentry.rate", cfg.Sentry.TracesSampleRate, 0.5},
		{"batch.workers", cfg.Batch.Workers, 4},
		{"log.level", cfg.Log.Level, "debug"},
		{"api.addr", cfg.API.Addr, "127.0.0.1:9090"},
		{"api.token", cfg.API.Token, "secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_JSONAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"instances_dir":"inst","reports":{"backend":"jsonl"}}`), 0o644))
	t.Setenv("CSPBC_REPORTS__BACKEND", "sqlite")
	t.Setenv("CSPBC_SOLUTIONS_DIR", "sols")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "inst", cfg.InstancesDir)
	assert.Equal(t, "sols", cfg.SolutionsDir)
	assert.Equal(t, "sqlite", cfg.Reports.Backend)
	assert.Equal(t, "reports.db", cfg.Reports.Path)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().InstancesDir, cfg.InstancesDir)
	assert.Equal(t, "jsonl", cfg.Reports.Backend)
	assert.Positive(t, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.API.Addr)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "config.toml"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("reports:\n  backend: mongo\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "reports")

	rate := filepath.Join(dir, "rate.yaml")
	require.NoError(t, os.WriteFile(rate, []byte("sentry:\n  traces_sample_rate: 2\n"), 0o644))
	_, err = Load(rate)
	assert.ErrorContains(t, err, "sentry")

	workers := filepath.Join(dir, "workers.yaml")
	require.NoError(t, os.WriteFile(workers, []byte("batch:\n  workers: -1\n"), 0o644))
	_, err = Load(workers)
	assert.ErrorContains(t, err, "batch")

	addr := filepath.Join(dir, "addr.yaml")
	require.NoError(t, os.WriteFile(addr, []byte("api:\n  addr: \"8080\"\n"), 0o644))
	_, err = Load(addr)
	assert.ErrorContains(t, err, "api")
}
