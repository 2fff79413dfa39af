package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/core/format"
	"github.com/kilianp07/cspbc/core/instance"
	"github.com/kilianp07/cspbc/core/model"
	"github.com/kilianp07/cspbc/core/solution"
	"github.com/kilianp07/cspbc/core/stats"
)

func readSolution(root *rootOptions, path, instPath string) (model.Solution, *instance.Instance, error) {
	cfg, err := root.load()
	if err != nil {
		return model.Solution{}, nil, err
	}
	var loader instance.Loader = instance.DirLoader{Dir: cfg.InstancesDir}
	if instPath != "" {
		loader = fixedLoader(instPath)
	}
	return solution.ReadFile(path, loader)
}

type fixedLoader string

func (f fixedLoader) Load(string) (*instance.Instance, error) { return instance.Load(string(f)) }

func newShowCmd(root *rootOptions) *cobra.Command {
	var instPath string
	cmd := &cobra.Command{
		Use:   "show <solution-file>",
		Short: "Pretty-print the pairings of a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, inst, err := readSolution(root, args[0], instPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pairings\n", inst.Name, len(sol.Pairings))
			fmt.Fprint(cmd.OutOrStdout(), format.Solution(sol, inst))
			return nil
		},
	}
	cmd.Flags().StringVar(&instPath, "instance", "", "instance file; defaults to <instances_dir>/<header>.txt")
	return cmd
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	var instPath string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats <solution-file>",
		Short: "Print structural statistics of a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, _, err := readSolution(root, args[0], instPath)
			if err != nil {
				return err
			}
			s := stats.Summarize(sol)
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			rows := []struct {
				name  string
				value any
			}{
				{"pairings", s.Pairings},
				{"duties", s.Duties},
				{"duties (single counted twice)", s.DutiesCountingSingleTwice},
				{"layovers", s.Layovers},
				{"deadheads", s.Deadheads},
				{"max deadheads per duty", s.MaxDeadheadsPerDuty},
				{"max consecutive deadheads", s.MaxDeadheadRunPerDuty},
				{"max activities per duty", s.MaxActivitiesPerDuty},
				{"max work activities per duty", s.MaxWorkActivitiesPerDuty},
				{"mean activities per duty", fmt.Sprintf("%.2f", s.MeanActivitiesPerDuty)},
				{"stddev activities per duty", fmt.Sprintf("%.2f", s.StdDevActivitiesPerDuty)},
				{"mean duty span", fmt.Sprintf("%.1f", s.MeanDutySpan)},
			}
			for _, r := range rows {
				fmt.Fprintf(w, "%-30s %v\n", r.name+":", r.value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&instPath, "instance", "", "instance file; defaults to <instances_dir>/<header>.txt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
