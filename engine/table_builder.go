package engine

import (
	"fmt"
	"strconv"
)

// BuildTable produces a table: one row per record for "list", one row per group otherwise.
func BuildTable(spec QuerySpec, groups []Group, view RecordView, measure string, opts ...Option) *TableData {
	cfg := applyOptions(opts)
	if spec.Aggregation == "list" {
		return buildListTable(spec, view, measure, cfg)
	}
	return buildAggregatedTable(spec, groups, measure, cfg)
}

func buildListTable(spec QuerySpec, view RecordView, measure string, cfg *options) *TableData {
	table := &TableData{Title: spec.Title, Columns: []Column{}, Rows: [][]string{}}
	if view.Len() == 0 {
		return table
	}

	dimKeys := view.DimensionKeys()
	for _, key := range dimKeys {
		table.Columns = append(table.Columns, Column{Key: key, Label: LabelForDimension(key), Type: "text", Align: "left"})
	}
	table.Columns = append(table.Columns, Column{Key: measure, Label: LabelForDimension(measure), Type: columnType(cfg, measure), Align: "right"})

	var total float64
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(table.Columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		val := view.Measure(i, measure)
		row = append(row, strconv.FormatFloat(RoundTo2(val), 'f', 2, 64))
		table.Rows = append(table.Rows, row)
		total += val
	}

	table.Summary = &Summary{
		Label:  fmt.Sprintf("Total (%d records)", view.Len()),
		Values: map[string]string{measure: cfg.formatMeasure(measure, total)},
	}
	return table
}

func buildAggregatedTable(spec QuerySpec, groups []Group, measure string, cfg *options) *TableData {
	table := &TableData{Title: spec.Title, Columns: []Column{}, Rows: [][]string{}}
	if len(groups) == 0 {
		return table
	}

	groupLabel := "Group"
	if len(spec.GroupBy) > 0 {
		groupLabel = LabelForDimension(spec.GroupBy[0])
	}
	valueType := "number"
	if spec.Aggregation != "count" {
		valueType = columnType(cfg, measure)
	}
	table.Columns = []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: LabelForAggregation(spec.Aggregation), Type: valueType, Align: "right"},
		{Key: "count", Label: "Count", Type: "number", Align: "center"},
	}

	var totalValue float64
	var totalCount int
	for _, g := range groups {
		table.Rows = append(table.Rows, []string{
			g.Label,
			strconv.FormatFloat(RoundTo2(g.Value), 'f', 2, 64),
			strconv.Itoa(g.Count),
		})
		totalValue += g.Value
		totalCount += g.Count
	}

	total := FormatNumber(RoundTo2(totalValue))
	if valueType == "currency" {
		total = FormatUSDFloat(totalValue)
	}
	table.Summary = &Summary{
		Label: "Total",
		Values: map[string]string{
			"value": total,
			"count": strconv.Itoa(totalCount),
		},
	}
	return table
}

func columnType(cfg *options, measure string) string {
	if cfg.MoneyMeasures[measure] {
		return "currency"
	}
	return "number"
}
