package schema

import (
	"regexp"
	"sort"
	"strings"

	"github.com/spektr-org/spendshark/engine"
)

// maxSamples bounds DimensionMeta.SampleValues.
const maxSamples = 5

// MeasureHint carries what a view cannot tell about a measure.
type MeasureHint struct {
	Description string
	Unit        string
	IsCurrency  bool
}

// Describe builds a Config from the keys and values of view.
// Dimensions and measures keep the order they were registered in.
func Describe(name string, view engine.RecordView, hints map[string]MeasureHint) Config {
	cfg := Config{
		Name:        name,
		RecordCount: view.Len(),
		Dimensions:  make([]DimensionMeta, 0, len(view.DimensionKeys())),
		Measures:    make([]MeasureMeta, 0, len(view.MeasureKeys())),
	}

	for _, key := range view.DimensionKeys() {
		unique := engine.UniqueValues(view, key)
		dim := DefaultDimension(key, toDisplayName(key), collectSamples(unique, maxSamples))
		dim.CardinalityHint = cardinality(len(unique))
		dim.IsTemporal, dim.TemporalFormat = detectTemporalPattern(dim.SampleValues)
		cfg.Dimensions = append(cfg.Dimensions, dim)
	}

	for _, key := range view.MeasureKeys() {
		m := DefaultMeasure(key, toDisplayName(key))
		if h, ok := hints[key]; ok {
			m.Description = h.Description
			m.Unit = h.Unit
			m.IsCurrency = h.IsCurrency
		}
		cfg.Measures = append(cfg.Measures, m)
	}
	return cfg
}

func cardinality(unique int) string {
	switch {
	case unique <= 10:
		return "low"
	case unique <= 100:
		return "medium"
	default:
		return "high"
	}
}

var monthPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"}, // Jan-2026
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},         // 2026-01
	{regexp.MustCompile(`^\d{4}$`), "yyyy"},                  // 2026
}

// detectTemporalPattern checks if values match known month/year patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	for _, pattern := range monthPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}
	return false, ""
}

// toDisplayName converts snake_case to Title Case.
// "duplicate_score" → "Duplicate Score"
func toDisplayName(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to n values in sorted order.
func collectSamples(values []string, n int) []string {
	samples := append([]string(nil), values...)
	sort.Strings(samples)
	if len(samples) > n {
		samples = samples[:n]
	}
	return samples
}
