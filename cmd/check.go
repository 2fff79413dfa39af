package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/app"
	"github.com/kilianp07/cspbc/core/reportlog"
)

type checkOptions struct {
	crew     int
	variant  string
	instance string
	asJSON   bool
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check <solution-file>",
		Short: "Check the feasibility and cost of a solution file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := root.service()
			if err != nil {
				return err
			}
			defer closeService(svc)
			job := app.Job{Solution: args[0], CrewMembers: o.crew, Variant: o.variant, Instance: o.instance}
			rec, err := svc.CheckJob(cmd.Context(), job)
			if err != nil {
				return err
			}
			if o.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(rec); err != nil {
					return err
				}
			} else {
				printRecord(cmd.OutOrStdout(), rec)
			}
			if !rec.Feasible() {
				return errInfeasible
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&o.crew, "crew", 0, "number of crew members")
	cmd.Flags().StringVar(&o.variant, "variant", "", "problem variant for the objective lookup (base, dh, dhl)")
	cmd.Flags().StringVar(&o.instance, "instance", "", "instance file; defaults to <instances_dir>/<header>.txt")
	cmd.Flags().BoolVar(&o.asJSON, "json", false, "print the full report as JSON")
	_ = cmd.MarkFlagRequired("crew")
	return cmd
}

func printRecord(w io.Writer, rec reportlog.Record) {
	status := "feasible"
	if !rec.Feasible() {
		status = "infeasible"
	}
	fmt.Fprintf(w, "%s (%d activities, %d crew members): %s\n", rec.Instance, rec.Activities, rec.CrewMembers, status)
	fmt.Fprintf(w, "cost: %d\n", rec.Report.Cost)
	fmt.Fprintf(w, "max work time: %d\n", rec.Report.MaxWorkTime)
	if rec.Objective >= 0 {
		opt := ""
		if rec.ClaimedOptimal {
			opt = " (claimed optimal)"
		}
		fmt.Fprintf(w, "published objective: %d%s\n", rec.Objective, opt)
		if gap, ok := rec.Gap(); ok {
			fmt.Fprintf(w, "gap: %.2f%%\n", gap*100)
		}
	}
	for _, v := range rec.Report.Violations {
		fmt.Fprintf(w, "  - %s\n", v)
	}
}
