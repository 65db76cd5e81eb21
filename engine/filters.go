package engine

import "strings"

// ApplyFilters returns the records matching every dimension filter.
// An empty filter returns view unchanged.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}
	if len(sets) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[strings.ToLower(view.Dimension(i, dim))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// Where is a single-dimension shorthand for ApplyFilters.
func Where(view RecordView, dimension string, values ...string) RecordView {
	return ApplyFilters(view, Filters{Dimensions: map[string][]string{dimension: values}})
}

func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
