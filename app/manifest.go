package app

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cspbc/core/benchmark"
)

// Job identifies one solution to check. Either Solution is set, or
// Activities and Variant locate the benchmark solution file for CrewMembers.
type Job struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Activities  int    `yaml:"activities,omitempty" json:"activities,omitempty"`
	Variant     string `yaml:"variant,omitempty" json:"variant,omitempty"`
	CrewMembers int    `yaml:"crew_members" json:"crew_members"`
	// Solution is an explicit solution file path.
	Solution string `yaml:"solution,omitempty" json:"solution,omitempty"`
	// Instance overrides the instance file; by default the name on the
	// solution header is resolved in the instances directory.
	Instance string `yaml:"instance,omitempty" json:"instance,omitempty"`
}

// Validate checks that the job can be resolved to a file.
func (j Job) Validate() error {
	if j.CrewMembers <= 0 {
		return fmt.Errorf("job %s: crew_members must be positive", j.Label())
	}
	if j.Solution != "" {
		if j.Variant != "" {
			if _, err := benchmark.ParseVariant(j.Variant); err != nil {
				return fmt.Errorf("job %s: %w", j.Label(), err)
			}
		}
		return nil
	}
	if j.Activities <= 0 {
		return fmt.Errorf("job %s: either solution or activities is required", j.Label())
	}
	if _, err := benchmark.ParseVariant(j.Variant); err != nil {
		return fmt.Errorf("job %s: %w", j.Label(), err)
	}
	return nil
}

// Label names the job in logs.
func (j Job) Label() string {
	switch {
	case j.Name != "":
		return j.Name
	case j.Solution != "":
		return j.Solution
	default:
		return fmt.Sprintf("csp%d_%s_cm%d", j.Activities, j.Variant, j.CrewMembers)
	}
}

// SolutionPath returns the explicit solution path or the benchmark file
// name under dir.
func (j Job) SolutionPath(dir string) string {
	if j.Solution != "" {
		return j.Solution
	}
	v, _ := benchmark.ParseVariant(j.Variant)
	return benchmark.SolutionFile(dir, v, j.Activities, j.CrewMembers)
}

// Manifest lists the jobs of a batch run.
type Manifest struct {
	Name string `yaml:"name"`
	// Workers overrides batch.workers when positive.
	Workers int   `yaml:"workers,omitempty"`
	Jobs    []Job `yaml:"jobs"`
}

// Validate checks every job.
func (m Manifest) Validate() error {
	if len(m.Jobs) == 0 {
		return fmt.Errorf("manifest %s: no jobs", m.Name)
	}
	for _, j := range m.Jobs {
		if err := j.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(bytes.NewReader(data))
}

// ParseManifest decodes and validates a YAML manifest. Unknown keys are rejected.
func ParseManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// SweepManifest builds one job per studied crew size of every instance size
// for variant. No sizes means every benchmark size.
func SweepManifest(v benchmark.Variant, sizes ...int) (Manifest, error) {
	if len(sizes) == 0 {
		sizes = benchmark.InstanceSizes()
	}
	m := Manifest{Name: "sweep-" + string(v)}
	for _, n := range sizes {
		r, ok := benchmark.CrewRangeFor(n)
		if !ok {
			return Manifest{}, fmt.Errorf("no crew range for instance size %d", n)
		}
		for _, c := range r.Values() {
			m.Jobs = append(m.Jobs, Job{Activities: n, Variant: string(v), CrewMembers: c})
		}
	}
	return m, nil
}

// WriteManifest encodes m as YAML.
func WriteManifest(w io.Writer, m Manifest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}
