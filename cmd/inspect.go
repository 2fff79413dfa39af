package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilianp07/cspbc/core/format"
	"github.com/kilianp07/cspbc/core/instance"
)

func newInspectCmd() *cobra.Command {
	var edges bool
	cmd := &cobra.Command{
		Use:   "inspect <instance-file>",
		Short: "Describe an instance: activities, connections and layover window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inst, err := instance.Load(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "instance: %s\n", inst.Name)
			fmt.Fprintf(w, "activities: %d\n", inst.NumberOfActivities)
			fmt.Fprintf(w, "max work periods: %d\n", inst.MaxWorkPeriods)
			fmt.Fprintf(w, "connections: %d\n", inst.NumberOfConnections())
			fmt.Fprintf(w, "last end period: %d\n", inst.LastEndPeriod)
			fmt.Fprintf(w, "start after layover window: [%d, %d]\n", inst.EarliestStartAfterLayover, inst.LatestStartAfterLayover)
			after := inst.StartAfterLayoverActivities()
			fmt.Fprintf(w, "activities starting after a layover: %d\n", len(after))
			if !edges {
				return nil
			}
			for _, a := range inst.Activities {
				succ := inst.Successors(a.Index)
				ids := make([]int, 0, len(succ))
				for j := range succ {
					ids = append(ids, j)
				}
				sort.Ints(ids)
				fmt.Fprintf(w, "%s ->", format.Activity(a))
				for _, j := range ids {
					fmt.Fprintf(w, " %d(C:%d)", j+1, succ[j])
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&edges, "edges", false, "list the successors of every activity")
	return cmd
}
