// Package reports exposes stored check reports over HTTP.
package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/cspbc/core/reportlog"
)

// QueryFunc returns the stored records matching q.
type QueryFunc func(ctx context.Context, q reportlog.Query) ([]reportlog.Record, error)

// NewReportHandler serves GET /api/reports. Supported filters are start and
// end (RFC3339), instance, run_id and infeasible=true. Requests must include
// "Authorization: Bearer <token>" when token is non-empty.
func NewReportHandler(query QueryFunc, token string) http.Handler {
	return guard(token, func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recs, err := query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []reportlog.Record{}
		}
		writeJSON(w, recs)
	})
}

// InstanceSummary aggregates the reports of one instance and variant.
type InstanceSummary struct {
	Instance   string `json:"instance"`
	Variant    string `json:"variant,omitempty"`
	Checks     int    `json:"checks"`
	Feasible   int    `json:"feasible"`
	Infeasible int    `json:"infeasible"`
	Failed     int    `json:"failed"`
	// BestCost is the lowest cost among feasible reports, -1 when none.
	BestCost  int `json:"best_cost"`
	Objective int `json:"objective"`
}

// NewSummaryHandler serves GET /api/reports/summary with one entry per
// instance and variant, accepting the same filters as NewReportHandler.
func NewSummaryHandler(query QueryFunc, token string) http.Handler {
	return guard(token, func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		recs, err := query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, Summarize(recs))
	})
}

// Summarize groups records by instance and variant, sorted by instance size
// then variant.
func Summarize(recs []reportlog.Record) []InstanceSummary {
	type key struct{ instance, variant string }
	idx := make(map[key]int)
	out := []InstanceSummary{}
	for _, r := range recs {
		k := key{r.Instance, r.Variant}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, InstanceSummary{Instance: r.Instance, Variant: r.Variant, BestCost: -1, Objective: -1})
		}
		s := &out[i]
		s.Checks++
		switch {
		case r.Error != "":
			s.Failed++
		case r.Feasible():
			s.Feasible++
			if s.BestCost < 0 || r.Report.Cost < s.BestCost {
				s.BestCost = r.Report.Cost
			}
		default:
			s.Infeasible++
		}
		if r.Objective > 0 {
			s.Objective = r.Objective
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i].Instance) != len(out[j].Instance) {
			return len(out[i].Instance) < len(out[j].Instance)
		}
		if out[i].Instance != out[j].Instance {
			return out[i].Instance < out[j].Instance
		}
		return out[i].Variant < out[j].Variant
	})
	return out
}

func guard(token string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	})
}

func parseQuery(r *http.Request) (reportlog.Query, error) {
	v := r.URL.Query()
	q := reportlog.Query{Instance: v.Get("instance"), RunID: v.Get("run_id")}
	for _, f := range []struct {
		name string
		dst  *time.Time
	}{{"start", &q.Start}, {"end", &q.End}} {
		s := v.Get(f.name)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return q, err
		}
		*f.dst = t
	}
	if s := v.Get("infeasible"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, err
		}
		q.InfeasibleOnly = b
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
