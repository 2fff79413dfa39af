package config

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
)

// BatchConfig tunes the batch runner.
type BatchConfig struct {
	// Workers is the number of concurrent checks; 0 uses GOMAXPROCS.
	Workers int `json:"workers"`
}

func (c *BatchConfig) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

func (c BatchConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level string `json:"level"`
	// Console enables the human readable writer, as APP_ENV=dev does.
	Console bool `json:"console"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return err
	}
	return nil
}
