package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cspbc/core/reportlog"
	"github.com/kilianp07/cspbc/core/validation"
)

func seed(t *testing.T) *reportlog.JSONLStore {
	t.Helper()
	store, err := reportlog.NewJSONLStore(filepath.Join(t.TempDir(), "reports.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []reportlog.Record{
		{ID: "a", RunID: "r1", Timestamp: base, Instance: "csp50", Variant: "base", Objective: 3139,
			Report: validation.Report{Feasible: true, Cost: 3200}},
		{ID: "b", RunID: "r1", Timestamp: base.Add(time.Minute), Instance: "csp50", Variant: "base", Objective: 3139,
			Report: validation.Report{Feasible: true, Cost: 3150}},
		{ID: "c", RunID: "r2", Timestamp: base.Add(time.Hour), Instance: "csp100", Variant: "dh", Objective: -1,
			Report: validation.Report{Feasible: false, Cost: 10}},
		{ID: "d", RunID: "r2", Timestamp: base.Add(2 * time.Hour), Instance: "csp50", Variant: "base", Error: "bad token"},
	}
	for _, r := range recs {
		require.NoError(t, store.Append(context.Background(), r))
	}
	return store
}

func get(t *testing.T, h http.Handler, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestReportHandler_AuthAndFilters(t *testing.T) {
	store := seed(t)
	h := NewMux(store.Query, "tok")

	rr := get(t, h, "/api/reports", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = get(t, h, "/api/reports", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	checks := []struct {
		target string
		ids    []string
	}{
		{"/api/reports", []string{"a", "b", "c", "d"}},
		{"/api/reports?instance=csp50", []string{"a", "b", "d"}},
		{"/api/reports?run_id=r2", []string{"c", "d"}},
		{"/api/reports?infeasible=true", []string{"c", "d"}},
		{"/api/reports?start=2024-03-01T12:30:00Z&end=2024-03-01T13:30:00Z", []string{"c"}},
		{"/api/reports?instance=csp500", []string{}},
	}
	for _, c := range checks {
		rr := get(t, h, c.target, "tok")
		require.Equal(t, http.StatusOK, rr.Code, c.target)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		var out []reportlog.Record
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), c.target)
		ids := make([]string, 0, len(out))
		for _, r := range out {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, c.ids, ids, c.target)
	}
}

func TestReportHandler_BadRequests(t *testing.T) {
	store := seed(t)
	h := NewMux(store.Query, "")

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/reports?start=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/reports?infeasible=maybe", "").Code)

	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	failing := NewReportHandler(func(context.Context, reportlog.Query) ([]reportlog.Record, error) {
		return nil, errors.New("disk gone")
	}, "")
	rr = get(t, failing, "/api/reports", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "disk gone")

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", "").Code)
}

func TestSummaryHandler(t *testing.T) {
	store := seed(t)
	h := NewMux(store.Query, "")

	rr := get(t, h, "/api/reports/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []InstanceSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out, 2)

	assert.Equal(t, InstanceSummary{
		Instance: "csp50", Variant: "base", Checks: 3, Feasible: 2, Failed: 1, BestCost: 3150, Objective: 3139,
	}, out[0])
	assert.Equal(t, InstanceSummary{
		Instance: "csp100", Variant: "dh", Checks: 1, Infeasible: 1, BestCost: -1, Objective: -1,
	}, out[1])

	assert.Empty(t, Summarize(nil))
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), nil) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
