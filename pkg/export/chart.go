package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/cspbc/core/reportlog"
)

// WriteCostChart renders an HTML bar chart comparing the cost of every
// readable record with its published objective. Unknown objectives are
// left blank.
func WriteCostChart(w io.Writer, title string, recs []reportlog.Record) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Solution"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Connection cost"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	var labels []string
	var costs, objectives []opts.BarData
	for _, r := range recs {
		if r.Error != "" {
			continue
		}
		label := fmt.Sprintf("%s cm%d", r.Instance, r.CrewMembers)
		if r.Variant != "" {
			label = fmt.Sprintf("%s %s cm%d", r.Instance, r.Variant, r.CrewMembers)
		}
		labels = append(labels, label)
		cost := opts.BarData{Value: r.Report.Cost}
		if !r.Report.Feasible {
			cost.Name = "infeasible"
			cost.ItemStyle = &opts.ItemStyle{Color: "#c23531"}
		}
		costs = append(costs, cost)
		obj := opts.BarData{Value: "-"}
		if r.Objective >= 0 {
			obj.Value = r.Objective
		}
		objectives = append(objectives, obj)
	}
	bar.SetXAxis(labels).
		AddSeries("Cost", costs).
		AddSeries("Published objective", objectives)
	return bar.Render(w)
}
