// Package export writes check reports for spreadsheets and dashboards.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/cspbc/core/reportlog"
)

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{
	"run_id", "timestamp", "instance", "variant", "activities", "crew_members",
	"pairings", "feasible", "cost", "objective", "claimed_optimal", "gap",
	"violations", "error",
}

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, recs []reportlog.Record) error {
	if recs == nil {
		recs = []reportlog.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// WriteCSV writes one row per record. Violation kinds are joined by '|'.
func WriteCSV(w io.Writer, recs []reportlog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		gap := ""
		if g, ok := r.Gap(); ok {
			gap = strconv.FormatFloat(g, 'f', 4, 64)
		}
		kinds := make([]string, 0, len(r.Report.Violations))
		for _, k := range r.Report.Kinds() {
			kinds = append(kinds, string(k))
		}
		row := []string{
			r.RunID,
			r.Timestamp.Format(time.RFC3339),
			r.Instance,
			r.Variant,
			strconv.Itoa(r.Activities),
			strconv.Itoa(r.CrewMembers),
			strconv.Itoa(r.Stats.Pairings),
			strconv.FormatBool(r.Feasible()),
			strconv.Itoa(r.Report.Cost),
			strconv.Itoa(r.Objective),
			strconv.FormatBool(r.ClaimedOptimal),
			gap,
			strings.Join(kinds, "|"),
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
