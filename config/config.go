// Package config loads the checker configuration from a YAML or JSON file
// with CSPBC_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/cspbc/core/metrics"
	"github.com/kilianp07/cspbc/core/reportlog"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// levels: CSPBC_REPORTS__BACKEND=sqlite sets reports.backend.
const EnvPrefix = "CSPBC_"

type Config struct {
	// InstancesDir holds csp<n>.txt instance files.
	InstancesDir string `json:"instances_dir"`
	// SolutionsDir holds csp<n>_<variant>_cm<c>_sol.txt files.
	SolutionsDir string `json:"solutions_dir"`
	// ResultsFile is the published results table; empty disables objective lookup.
	ResultsFile string           `json:"results_file"`
	Reports     reportlog.Config `json:"reports"`
	Metrics     metrics.Config   `json:"metrics"`
	Sentry      SentryConfig     `json:"sentry"`
	Batch       BatchConfig      `json:"batch"`
	Log         LogConfig        `json:"log"`
	API         APIConfig        `json:"api"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every unset section.
func (c *Config) SetDefaults() {
	if c.InstancesDir == "" {
		c.InstancesDir = "instances"
	}
	if c.SolutionsDir == "" {
		c.SolutionsDir = "solutions"
	}
	c.Reports.SetDefaults()
	c.Batch.SetDefaults()
	c.Log.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Reports.Validate(); err != nil {
		return fmt.Errorf("reports: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	if err := c.Batch.Validate(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// Load reads path, applies environment overrides, defaults and validation.
// An empty path loads defaults and environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
