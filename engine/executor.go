package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spektr-org/spendshark/config"
)

// ============================================================================
// EXECUTOR: validate → filter → group → build → fill reply
// ============================================================================

// Execute runs spec against view and returns a render-ready Result.
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	spec = NormalizeQuerySpec(spec)

	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}
	if err := ValidateQuerySpec(spec, view, measure); err != nil {
		return nil, err
	}

	logger := config.GetLogger().WithFields(logrus.Fields{
		"module":      "engine",
		"intent":      spec.Intent,
		"aggregation": spec.Aggregation,
		"measure":     measure,
	})

	if view.Len() == 0 {
		return &Result{Success: true, Type: "text", Reply: "No data available to analyze."}, nil
	}

	filtered := ApplyFilters(view, spec.Filters)
	logger.Debugf("🔧 engine: %d of %d records after filtering", filtered.Len(), view.Len())
	if filtered.Len() == 0 {
		return &Result{
			Success: true,
			Type:    "text",
			Reply:   "No records match your query filters. Try broadening your search.",
		}, nil
	}

	groups := GroupAndAggregate(filtered, spec.GroupBy, measure, spec.Aggregation, spec.SortBy, spec.Limit)

	result := &Result{
		Success:     true,
		Title:       spec.Title,
		RecordCount: filtered.Len(),
	}

	switch spec.Intent {
	case "chart":
		result.Type = "chart"
		result.ChartConfig = BuildChart(spec, groups)
		if result.ChartConfig == nil {
			result.Type = "text"
			result.Reply = "Not enough data to generate a chart."
			return result, nil
		}
	case "table":
		result.Type = "table"
		result.TableData = BuildTable(spec, groups, filtered, measure, opts...)
	default:
		result.Type = "text"
		result.TextData = BuildText(spec, filtered, measure, opts...)
	}

	result.Reply = resolvePlaceholders(spec.Reply, groups, filtered, measure, cfg)
	return result, nil
}

// ValidateQuerySpec checks tag constraints and that every referenced
// dimension and measure exists on view.
func ValidateQuerySpec(spec QuerySpec, view RecordView, measure string) error {
	if err := config.Validator().Struct(spec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	dims := view.DimensionKeys()
	for _, g := range spec.GroupBy {
		if !slices.Contains(dims, g) {
			return fmt.Errorf("%w: unknown groupBy dimension %q", ErrInvalidQuery, g)
		}
	}
	for d := range spec.Filters.Dimensions {
		if !slices.Contains(dims, d) {
			return fmt.Errorf("%w: unknown filter dimension %q", ErrInvalidQuery, d)
		}
	}
	if spec.Aggregation != "count" && !slices.Contains(view.MeasureKeys(), measure) {
		return fmt.Errorf("%w: unknown measure %q", ErrInvalidQuery, measure)
	}
	return nil
}

// NormalizeQuerySpec fills defaults and repairs inconsistent combinations.
func NormalizeQuerySpec(spec QuerySpec) QuerySpec {
	if spec.Intent == "" {
		spec.Intent = "text"
	}
	if spec.Aggregation == "" {
		spec.Aggregation = "sum"
	}

	// list only makes sense as a table
	if spec.Aggregation == "list" {
		spec.Intent = "table"
		spec.Visualize = "table"
	}
	// a chart needs something on the x axis
	if spec.Intent == "chart" && len(spec.GroupBy) == 0 {
		spec.Intent = "text"
		spec.Visualize = "text"
	}
	if spec.Visualize == "" {
		spec.Visualize = spec.Intent
		if spec.Intent == "chart" {
			spec.Visualize = "bar"
		}
	}
	return spec
}

// resolvePlaceholders fills {total} {count} {avg} {max} {min} {period}
// {top_label} {top_value} in template. Unknown placeholders are stripped.
func resolvePlaceholders(template string, groups []Group, view RecordView, measure string, cfg *options) string {
	total := SumMeasure(view, measure)
	count := view.Len()

	if template == "" {
		if count == 0 {
			return "No matching records found."
		}
		return fmt.Sprintf("Found %s records totalling %s.", FormatInt(count), cfg.formatMeasure(measure, total))
	}

	replacements := map[string]string{
		"{total}":  cfg.formatMeasure(measure, total),
		"{count}":  strconv.Itoa(count),
		"{period}": DerivePeriod(view),
	}
	if count > 0 {
		replacements["{avg}"] = cfg.formatMeasure(measure, total/float64(count))
		replacements["{max}"] = cfg.formatMeasure(measure, MaxMeasure(view, measure))
		replacements["{min}"] = cfg.formatMeasure(measure, MinMeasure(view, measure))
	}
	if len(groups) > 0 {
		top := groups[0]
		for _, g := range groups[1:] {
			if g.Value > top.Value {
				top = g
			}
		}
		replacements["{top_label}"] = top.Label
		replacements["{top_value}"] = cfg.formatMeasure(measure, top.Value)
	}

	out := template
	for k, v := range replacements {
		out = strings.ReplaceAll(out, k, v)
	}
	return stripUnresolvedPlaceholders(out)
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return text
	}
	return cleaned
}
