package cmd

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/app"
	"github.com/kilianp07/cspbc/core/benchmark"
)

type batchOptions struct {
	sweep        string
	sizes        string
	workers      int
	dumpManifest bool
	exportOptions
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	o := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [manifest.yaml]",
		Short: "Check many solutions from a manifest or a crew size sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := o.manifest(args)
			if err != nil {
				return err
			}
			if o.workers > 0 {
				m.Workers = o.workers
			}
			if o.dumpManifest {
				return app.WriteManifest(cmd.OutOrStdout(), m)
			}

			var mu sync.Mutex
			done := 0
			progress := app.WithProgress(func(out app.Outcome) {
				mu.Lock()
				defer mu.Unlock()
				done++
				status := "feasible"
				switch {
				case out.Err != nil:
					status = "failed: " + out.Err.Error()
				case !out.Record.Feasible():
					status = "infeasible"
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n", done, len(m.Jobs), out.Job.Label(), status)
			})
			svc, _, err := root.service(progress)
			if err != nil {
				return err
			}
			defer closeService(svc)
			svc.ServeMetrics(cmd.Context())

			res, err := svc.RunBatch(cmd.Context(), m)
			printBatch(cmd, res)
			if err != nil {
				return err
			}
			return o.export(cmd, m.Name, res.Records)
		},
	}
	cmd.Flags().StringVar(&o.sweep, "sweep", "", "build the jobs from the crew ranges of a variant (base, dh, dhl)")
	cmd.Flags().StringVar(&o.sizes, "sizes", "", "comma separated instance sizes for --sweep (default: all)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "override batch.workers")
	cmd.Flags().BoolVar(&o.dumpManifest, "dump-manifest", false, "print the manifest as YAML and exit")
	o.exportOptions.register(cmd)
	return cmd
}

func (o *batchOptions) manifest(args []string) (app.Manifest, error) {
	switch {
	case len(args) == 1 && o.sweep != "":
		return app.Manifest{}, fmt.Errorf("give either a manifest or --sweep, not both")
	case len(args) == 1:
		return app.LoadManifest(args[0])
	case o.sweep != "":
		v, err := benchmark.ParseVariant(o.sweep)
		if err != nil {
			return app.Manifest{}, err
		}
		sizes, err := parseSizes(o.sizes)
		if err != nil {
			return app.Manifest{}, err
		}
		return app.SweepManifest(v, sizes...)
	default:
		return app.Manifest{}, fmt.Errorf("a manifest file or --sweep is required")
	}
}

func printBatch(cmd *cobra.Command, res app.BatchResult) {
	w := cmd.OutOrStdout()
	infeasible := len(res.Records) - res.Feasible - res.Failed
	fmt.Fprintf(w, "run %s (%s): %d jobs, %d feasible, %d infeasible, %d failed in %s\n",
		res.RunID, res.Name, len(res.Records), res.Feasible, infeasible, res.Failed, res.Duration.Round(time.Millisecond))
	for i, rec := range res.Records {
		if res.Errors[i] != nil || rec.Instance == "" {
			continue
		}
		line := fmt.Sprintf("  %-8s %-4s cm%-4d cost %-6d", rec.Instance, rec.Variant, rec.CrewMembers, rec.Report.Cost)
		if rec.Objective >= 0 {
			line += fmt.Sprintf(" objective %-6d", rec.Objective)
		}
		if !rec.Feasible() {
			line += fmt.Sprintf(" infeasible (%d violations)", len(rec.Report.Violations))
		}
		fmt.Fprintln(w, line)
	}
}
