package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cspbc/core/reportlog"
)

func TestRunBatch(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	f := newFixture(t, WithProgress(func(o Outcome) {
		mu.Lock()
		seen = append(seen, o.Index)
		mu.Unlock()
	}))
	m := Manifest{Name: "mixed", Jobs: []Job{
		{Activities: 3, Variant: "base", CrewMembers: 1},
		{Activities: 3, Variant: "base", CrewMembers: 2},
		{Activities: 3, Variant: "dh", CrewMembers: 1},
		{Activities: 3, Variant: "dhl", CrewMembers: 1},
	}}
	res, err := f.svc.RunBatch(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, "mixed", res.Name)
	assert.Equal(t, 1, res.Feasible)
	assert.Equal(t, 2, res.Failed, "bad token and missing dhl file")
	require.Len(t, res.Records, 4)
	assert.True(t, res.Records[0].Feasible())
	assert.False(t, res.Records[1].Feasible())
	assert.Equal(t, 2, res.Records[1].CrewMembers, "records keep job order")
	assert.NoError(t, res.Errors[0])
	assert.Error(t, res.Errors[2])
	assert.Equal(t, res.Errors[2], res.FirstError())
	assert.Error(t, res.Err())

	for _, r := range res.Records {
		assert.Equal(t, res.RunID, r.RunID)
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, seen)

	require.Len(t, f.sink.batches, 1)
	assert.Equal(t, 4, f.sink.batches[0].Jobs)
	assert.Equal(t, 2, f.sink.batches[0].Failed)

	stored, err := f.svc.Reports(context.Background(), reportlog.Query{RunID: res.RunID})
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestRunBatch_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := Manifest{Name: "cancelled", Jobs: []Job{{Activities: 3, Variant: "base", CrewMembers: 1}}}
	res, err := f.svc.RunBatch(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Feasible)
}

func TestRunBatch_InvalidManifest(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RunBatch(context.Background(), Manifest{Name: "empty"})
	assert.Error(t, err)
}
