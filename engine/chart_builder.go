package engine

// Default color palette for chart series.
var defaultColors = []string{
	"#00F3FF", "#7B2CBF", "#10B981", "#F59E0B", "#EF4444",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart turns aggregated groups into a chart. Returns nil when there is nothing to plot.
func BuildChart(spec QuerySpec, groups []Group) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}

	chartType := spec.Visualize
	if chartType == "" || chartType == "table" || chartType == "text" {
		chartType = "bar"
	}

	cfg := &ChartConfig{
		ChartType:  chartType,
		Title:      spec.Title,
		YAxis:      LabelForAggregation(spec.Aggregation),
		ShowLegend: true,
		ShowGrid:   chartType != "pie",
	}
	if len(spec.GroupBy) > 0 {
		cfg.XAxis = LabelForDimension(spec.GroupBy[0])
	}

	if len(spec.GroupBy) >= 2 && hasSubGroups(groups) {
		cfg.Series = buildMultiSeries(groups)
	} else {
		cfg.Series = buildSingleSeries(groups, spec.Title)
	}
	cfg.Colors = assignColors(len(cfg.Series))
	return cfg
}

func buildSingleSeries(groups []Group, name string) []ChartSeries {
	if name == "" {
		name = "Value"
	}
	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(g.Value)})
	}
	return []ChartSeries{{Name: name, Data: points}}
}

// buildMultiSeries pivots subgroups into one series per subgroup key.
// Series order follows first appearance; missing points are zero.
func buildMultiSeries(groups []Group) []ChartSeries {
	var keys []string
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				keys = append(keys, sg.Key)
			}
		}
	}

	series := make([]ChartSeries, len(keys))
	for i, key := range keys {
		series[i] = ChartSeries{
			Name:  key,
			Data:  make([]ChartPoint, 0, len(groups)),
			Color: defaultColors[i%len(defaultColors)],
		}
	}

	for _, g := range groups {
		values := make(map[string]float64, len(g.SubGroups))
		for _, sg := range g.SubGroups {
			values[sg.Key] = sg.Value
		}
		for i, key := range keys {
			series[i].Data = append(series[i].Data, ChartPoint{Label: g.Label, Value: RoundTo2(values[key])})
		}
	}
	return series
}

func hasSubGroups(groups []Group) bool {
	for _, g := range groups {
		if len(g.SubGroups) > 0 {
			return true
		}
	}
	return false
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := range colors {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
