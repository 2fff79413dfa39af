package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cspbc/core/benchmark"
)

func TestParseManifest(t *testing.T) {
	data := `name: nightly
workers: 3
jobs:
  - activities: 50
    variant: dh
    crew_members: 27
  - name: custom
    solution: out/csp50_sol.txt
    crew_members: 28
`
	m, err := ParseManifest(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "nightly", m.Name)
	assert.Equal(t, 3, m.Workers)
	require.Len(t, m.Jobs, 2)
	assert.Equal(t, filepath.Join("sol", "csp50_dh_cm27_sol.txt"), m.Jobs[0].SolutionPath("sol"))
	assert.Equal(t, "csp50_dh_cm27", m.Jobs[0].Label())
	assert.Equal(t, "out/csp50_sol.txt", m.Jobs[1].SolutionPath("sol"))
	assert.Equal(t, "custom", m.Jobs[1].Label())
}

func TestParseManifest_Errors(t *testing.T) {
	checks := []struct {
		name string
		data string
	}{
		{"no jobs", "name: x\njobs: []\n"},
		{"unknown field", "name: x\nbogus: 1\njobs:\n  - solution: a\n    crew_members: 1\n"},
		{"no crew", "name: x\njobs:\n  - activities: 50\n    variant: dh\n"},
		{"bad variant", "name: x\njobs:\n  - activities: 50\n    variant: opt\n    crew_members: 2\n"},
		{"nothing to locate", "name: x\njobs:\n  - crew_members: 2\n"},
	}
	for _, c := range checks {
		if _, err := ParseManifest(strings.NewReader(c.data)); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestSweepManifest_RoundTrip(t *testing.T) {
	m, err := SweepManifest(benchmark.VariantDHL, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, "sweep-dhl", m.Name)
	require.Len(t, m.Jobs, 10)
	assert.Equal(t, Job{Activities: 100, Variant: "dhl", CrewMembers: 48}, m.Jobs[9])

	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, m))
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	back, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, back)

	all, err := SweepManifest(benchmark.VariantBase)
	require.NoError(t, err)
	assert.Len(t, all.Jobs, 50)

	_, err = SweepManifest(benchmark.VariantBase, 60)
	assert.Error(t, err)
}
