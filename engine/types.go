package engine

import "errors"

// ============================================================================
// ENGINE TYPES: Analytics contract with the presentation layer
// ============================================================================
// The dashboard posts a QuerySpec, the engine reads the session dataset through
// a RecordView and returns a render-ready Result. No data is copied.
// ============================================================================

// ErrInvalidQuery is returned when a QuerySpec references unknown fields or
// carries values outside the accepted sets.
var ErrInvalidQuery = errors.New("invalid query spec")

// QuerySpec defines what the engine should compute.
type QuerySpec struct {
	Intent      string   `json:"intent" validate:"omitempty,oneof=text table chart"`
	Filters     Filters  `json:"filters"`
	Aggregation string   `json:"aggregation" validate:"omitempty,oneof=sum count avg max min list none"`
	Measure     string   `json:"measure"`                                  // empty → default measure
	GroupBy     []string `json:"groupBy" validate:"max=2,dive,required"`   // ["vendor"], ["month", "status"]
	SortBy      string   `json:"sortBy" validate:"omitempty,oneof=value_desc value_asc date_asc date_desc alpha_asc alpha_desc"`
	Limit       int      `json:"limit" validate:"gte=0,lte=1000"`          // 0 = all
	Visualize   string   `json:"visualize" validate:"omitempty,oneof=bar line pie stacked_bar area table text"`
	Title       string   `json:"title"`
	Reply       string   `json:"reply"` // "Suspected spend is {total} across {count} invoices."
}

// Filters restrict records by dimension value.
// OR within a dimension, AND across dimensions. Matching is case-insensitive.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter reports whether dimension carries at least one allowed value.
func (f Filters) HasFilter(dimension string) bool {
	return len(f.Dimensions[dimension]) > 0
}

// IsEmpty reports whether no dimension is restricted.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Result is the engine's render-ready output.
type Result struct {
	Success bool   `json:"success"`
	Type    string `json:"type"` // "chart", "table", "text"
	Reply   string `json:"reply"`
	Title   string `json:"title"`

	// Exactly one of these is populated based on Type.
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`
	TextData    *TextData    `json:"textData,omitempty"`

	RecordCount int `json:"recordCount"`
}

// Group is an intermediate grouped/aggregated result.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"`
}

// ChartConfig describes a chart for the dashboard.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries is one named data series.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is a single labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TableData describes a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary holds the totals row of a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// TextData is the structured answer for a single-value query.
type TextData struct {
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
	Period   string  `json:"period"`
	Count    int     `json:"count"`
}
