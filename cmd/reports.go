package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/core/reportlog"
	"github.com/kilianp07/cspbc/pkg/export"
)

// exportOptions are shared by commands that produce report lists.
type exportOptions struct {
	csvPath   string
	jsonPath  string
	chartPath string
}

func (o *exportOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.csvPath, "csv", "", "write the records as CSV to this file (- for stdout)")
	cmd.Flags().StringVar(&o.jsonPath, "json", "", "write the records as JSON to this file (- for stdout)")
	cmd.Flags().StringVar(&o.chartPath, "chart", "", "write an HTML cost chart to this file")
}

func (o *exportOptions) export(cmd *cobra.Command, title string, recs []reportlog.Record) error {
	writers := []struct {
		path  string
		write func(w io.Writer) error
	}{
		{o.csvPath, func(w io.Writer) error { return export.WriteCSV(w, recs) }},
		{o.jsonPath, func(w io.Writer) error { return export.WriteJSON(w, recs) }},
		{o.chartPath, func(w io.Writer) error { return export.WriteCostChart(w, title, recs) }},
	}
	for _, wr := range writers {
		if wr.path == "" {
			continue
		}
		w, closeFn, err := create(cmd, wr.path)
		if err != nil {
			return err
		}
		err = wr.write(w)
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("export %s: %w", wr.path, err)
		}
	}
	return nil
}

type reportsOptions struct {
	instance   string
	runID      string
	since      time.Duration
	until      string
	infeasible bool
	exportOptions
}

func newReportsCmd(root *rootOptions) *cobra.Command {
	o := &reportsOptions{}
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Query stored check reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := reportlog.Query{Instance: o.instance, RunID: o.runID, InfeasibleOnly: o.infeasible}
			if o.since > 0 {
				q.Start = time.Now().Add(-o.since)
			}
			if o.until != "" {
				t, err := time.Parse(time.RFC3339, o.until)
				if err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				q.End = t
			}
			svc, _, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			recs, err := svc.Reports(cmd.Context(), q)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if o.csvPath == "" && o.jsonPath == "" {
				fmt.Fprintf(w, "%d reports\n", len(recs))
				for _, r := range recs {
					status := "feasible"
					switch {
					case r.Error != "":
						status = "error: " + r.Error
					case !r.Feasible():
						status = fmt.Sprintf("infeasible (%d violations)", len(r.Report.Violations))
					}
					fmt.Fprintf(w, "%s %s %s cm%d cost %d %s\n",
						r.Timestamp.Format(time.RFC3339), r.Instance, r.Variant, r.CrewMembers, r.Report.Cost, status)
				}
			}
			return o.export(cmd, "Stored reports", recs)
		},
	}
	cmd.Flags().StringVar(&o.instance, "instance", "", "only reports of this instance")
	cmd.Flags().StringVar(&o.runID, "run", "", "only reports of this run")
	cmd.Flags().DurationVar(&o.since, "since", 0, "only reports newer than this duration")
	cmd.Flags().StringVar(&o.until, "until", "", "only reports older than this RFC3339 time")
	cmd.Flags().BoolVar(&o.infeasible, "infeasible", false, "only infeasible or unreadable solutions")
	o.exportOptions.register(cmd)
	return cmd
}
