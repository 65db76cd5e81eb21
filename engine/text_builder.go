package engine

// BuildText computes a single-value answer over view.
func BuildText(spec QuerySpec, view RecordView, measure string, opts ...Option) *TextData {
	cfg := applyOptions(opts)
	if view.Len() == 0 {
		return &TextData{Value: "0", Period: DerivePeriod(view)}
	}

	var value float64
	switch spec.Aggregation {
	case "count":
		value = float64(view.Len())
	case "avg":
		value = AvgMeasure(view, measure)
	case "max":
		value = MaxMeasure(view, measure)
	case "min":
		value = MinMeasure(view, measure)
	default:
		value = SumMeasure(view, measure)
	}

	formatted := cfg.formatMeasure(measure, value)
	if spec.Aggregation == "count" {
		formatted = FormatInt(int(value))
	}

	return &TextData{
		Value:    formatted,
		RawValue: RoundTo2(value),
		Period:   DerivePeriod(view),
		Count:    view.Len(),
	}
}
