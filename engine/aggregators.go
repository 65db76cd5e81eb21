package engine

import (
	"math"
	"sort"
	"strings"
	"time"
)

// ============================================================================
// AGGREGATORS: group → aggregate → sort → limit
// ============================================================================

// GroupAndAggregate runs the aggregation pipeline over view.
// With no groupBy the whole view becomes a single "Total" group.
func GroupAndAggregate(view RecordView, groupBy []string, measure, aggregation, sortBy string, limit int) []Group {
	if view.Len() == 0 {
		return nil
	}

	var groups []Group
	switch len(groupBy) {
	case 0:
		groups = []Group{{Key: "all", Label: "Total", View: view}}
	case 1:
		groups = groupBySingle(view, groupBy[0])
	default:
		groups = groupBySingle(view, groupBy[0])
		for i := range groups {
			groups[i].SubGroups = groupBySingle(groups[i].View, groupBy[1])
		}
	}

	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
		for j := range groups[i].SubGroups {
			aggregateGroup(&groups[i].SubGroups[j], measure, aggregation)
		}
	}

	SortGroups(groups, sortBy)

	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// groupBySingle buckets records by one dimension, keeping first-seen order.
func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func aggregateGroup(group *Group, measure, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "count":
		group.Value = float64(group.Count)
	case "avg":
		group.Value = AvgMeasure(group.View, measure)
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	case "none":
	default: // sum, list
		group.Value = SumMeasure(group.View, measure)
	}
}

// SumMeasure sums measure across view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure is the mean of measure, 0 for an empty view.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure is the largest value of measure, 0 for an empty view.
func MaxMeasure(view RecordView, measure string) float64 {
	if view.Len() == 0 {
		return 0
	}
	m := math.Inf(-1)
	for i := 0; i < view.Len(); i++ {
		m = math.Max(m, view.Measure(i, measure))
	}
	return m
}

// MinMeasure is the smallest value of measure, 0 for an empty view.
func MinMeasure(view RecordView, measure string) float64 {
	if view.Len() == 0 {
		return 0
	}
	m := math.Inf(1)
	for i := 0; i < view.Len(); i++ {
		m = math.Min(m, view.Measure(i, measure))
	}
	return m
}

// SortGroups orders groups in place. Unknown modes keep grouping order.
// Ties keep their relative order.
func SortGroups(groups []Group, sortBy string) {
	var less func(a, b Group) bool
	switch sortBy {
	case "value_desc":
		less = func(a, b Group) bool { return a.Value > b.Value }
	case "value_asc":
		less = func(a, b Group) bool { return a.Value < b.Value }
	case "date_asc":
		less = func(a, b Group) bool { return ParseMonthOrder(a.Key) < ParseMonthOrder(b.Key) }
	case "date_desc":
		less = func(a, b Group) bool { return ParseMonthOrder(a.Key) > ParseMonthOrder(b.Key) }
	case "alpha_asc":
		less = func(a, b Group) bool { return strings.ToLower(a.Key) < strings.ToLower(b.Key) }
	case "alpha_desc":
		less = func(a, b Group) bool { return strings.ToLower(a.Key) > strings.ToLower(b.Key) }
	default:
		return
	}
	sort.SliceStable(groups, func(i, j int) bool { return less(groups[i], groups[j]) })
}

// ParseMonthOrder converts "Jan-2026" to a sortable 202601, 0 if unparseable.
func ParseMonthOrder(month string) int {
	t, err := time.Parse("Jan-2006", month)
	if err != nil {
		return 0
	}
	return t.Year()*100 + int(t.Month())
}

// UniqueValues returns the distinct non-empty values of dimension in first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// DerivePeriod describes the month span covered by view.
func DerivePeriod(view RecordView) string {
	if view.Len() == 0 {
		return "No data"
	}
	var earliest, latest string
	for _, m := range UniqueValues(view, "month") {
		order := ParseMonthOrder(m)
		if order == 0 {
			continue
		}
		if earliest == "" || order < ParseMonthOrder(earliest) {
			earliest = m
		}
		if latest == "" || order > ParseMonthOrder(latest) {
			latest = m
		}
	}
	switch {
	case earliest == "":
		return "All time"
	case earliest == latest:
		return earliest
	default:
		return earliest + " – " + latest
	}
}
