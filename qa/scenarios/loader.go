// Package scenarios holds hand-written checking scenarios: a small instance,
// a set of pairings and the verdict the checker must reach.
package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Expected is the verdict of a scenario. When ParseError is set the solution
// must be rejected by the reader with an error containing it.
type Expected struct {
	Feasible   bool     `yaml:"feasible"`
	Cost       int      `yaml:"cost"`
	Violations []string `yaml:"violations,omitempty"`
	ParseError string   `yaml:"parse_error,omitempty"`
}

type Scenario struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	InstanceName string   `yaml:"instance_name,omitempty"`
	Instance     string   `yaml:"instance"`
	Solution     string   `yaml:"solution"`
	CrewMembers  int      `yaml:"crew_members"`
	Expected     Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = filepath.Base(path)
	}
	if sc.Instance == "" {
		return nil, fmt.Errorf("%s: missing instance", path)
	}
	return &sc, nil
}

// LoadDir loads every *.yaml scenario of dir in file name order.
func LoadDir(dir string) ([]*Scenario, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
		out = append(out, sc)
	}
	return out, nil
}
