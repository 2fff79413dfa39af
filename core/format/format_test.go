package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cspbc/core/instance"
	"github.com/kilianp07/cspbc/core/model"
)

func TestActivityAndConnection(t *testing.T) {
	w := model.NewWork(0, 10, 70)
	assert.Equal(t, "[ID:1 S:10 WT:60 E:70 ]", Activity(w))
	assert.Equal(t, "(ID:1 S:10 WT:0 E:70)", Activity(w.AsDeadhead()))

	next := model.NewWork(1, 100, 200)
	assert.Equal(t, " - WC WT:30 - ", Connection(w, next, nil))
	assert.Equal(t, " - DC - ", Connection(w, next.AsDeadhead(), nil))
}

func TestDutyAndPairing(t *testing.T) {
	inst, err := instance.Parse("x", strings.NewReader("3 1000\n1000 1100\n1150 1300\n340 400\n1 2 4\n"))
	require.NoError(t, err)
	a := inst.Activities

	d := model.Duty{a[0], a[1]}
	assert.Equal(t,
		"||  [ID:1 S:1000 WT:100 E:1100 ] - WC WT:50 C:4 - [ID:2 S:1150 WT:150 E:1300 ] | Total: WT: 300 Cost: 4 ||",
		Duty(d, inst))
	assert.Equal(t,
		"||  [ID:1 S:1000 WT:100 E:1100 ] - WC WT:50 - [ID:2 S:1150 WT:150 E:1300 ] | Total: WT: 300  ||",
		Duty(d, nil))
	assert.Contains(t, Duty(model.Duty{a[1], a[0]}, inst), "C:-")

	p := Pairing(model.Pairing{d, {a[2]}}, inst)
	assert.Contains(t, p, " --- Layover with time 480 --- ")
	assert.Equal(t, 2, strings.Count(p, "||  "))

	out := Solution(model.Solution{Pairings: []model.Pairing{{d}, {{a[2]}}}}, nil)
	assert.True(t, strings.HasPrefix(out, "  1: ||"))
	assert.Equal(t, 2, strings.Count(out, "\n"))
}
