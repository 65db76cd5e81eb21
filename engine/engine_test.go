package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// ============================================================================
// ENGINE TESTS
// ============================================================================

type spend struct {
	Vendor string
	Status string
	Month  string
	Amount float64
}

var spendAdapter = NewDomainAdapter[spend]().
	Dimension("vendor", func(s spend) string { return s.Vendor }).
	Dimension("status", func(s spend) string { return s.Status }).
	Dimension("month", func(s spend) string { return s.Month }).
	Measure("amount", func(s spend) float64 { return s.Amount })

var spendRows = []spend{
	{"Medline", "Cleared", "Jan-2025", 1000},
	{"Medline", "Suspected", "Feb-2025", 2500.50},
	{"Philips", "Cleared", "Jan-2025", 300},
	{"Baxter", "Cleared", "Mar-2025", 4200},
	{"Philips", "Suspected", "Mar-2025", 99.50},
}

func spendView() RecordView { return spendAdapter.Bind(spendRows) }

func TestApplyFiltersCaseInsensitive(t *testing.T) {
	got := Where(spendView(), "status", "suspected")
	if got.Len() != 2 {
		t.Fatalf("filtered = %d, want 2", got.Len())
	}
	both := ApplyFilters(spendView(), Filters{Dimensions: map[string][]string{
		"status": {"Cleared"},
		"vendor": {"philips", "BAXTER"},
	}})
	if both.Len() != 2 {
		t.Fatalf("AND/OR filter = %d, want 2", both.Len())
	}
	if ApplyFilters(spendView(), Filters{}).Len() != len(spendRows) {
		t.Fatal("empty filter must return the full view")
	}
}

func TestGroupAndAggregate(t *testing.T) {
	groups := GroupAndAggregate(spendView(), []string{"vendor"}, "amount", "sum", "value_desc", 0)
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	if groups[0].Key != "Baxter" || groups[0].Value != 4200 {
		t.Errorf("top group = %+v", groups[0])
	}
	if groups[1].Key != "Medline" || groups[1].Count != 2 {
		t.Errorf("second group = %+v", groups[1])
	}

	limited := GroupAndAggregate(spendView(), []string{"vendor"}, "amount", "count", "alpha_asc", 2)
	if len(limited) != 2 || limited[0].Key != "Baxter" || limited[1].Value != 2 {
		t.Errorf("limited = %+v", limited)
	}

	total := GroupAndAggregate(spendView(), nil, "amount", "avg", "", 0)
	if len(total) != 1 || RoundTo2(total[0].Value) != 1620 {
		t.Errorf("avg total = %+v", total)
	}
}

func TestSortByMonth(t *testing.T) {
	groups := GroupAndAggregate(spendView(), []string{"month"}, "amount", "sum", "date_asc", 0)
	want := []string{"Jan-2025", "Feb-2025", "Mar-2025"}
	for i, w := range want {
		if groups[i].Key != w {
			t.Fatalf("order = %v", groups)
		}
	}
	if DerivePeriod(spendView()) != "Jan-2025 – Mar-2025" {
		t.Errorf("period = %q", DerivePeriod(spendView()))
	}
}

func TestMinMax(t *testing.T) {
	if MaxMeasure(spendView(), "amount") != 4200 || MinMeasure(spendView(), "amount") != 99.50 {
		t.Fatal("min/max wrong")
	}
	empty := spendAdapter.Bind(nil)
	if MaxMeasure(empty, "amount") != 0 || AvgMeasure(empty, "amount") != 0 {
		t.Fatal("empty view must aggregate to 0")
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"999.5", "$999.50"},
		{"1234.56", "$1,234.56"},
		{"1234567.891", "$1,234,567.89"},
		{"-42000", "-$42,000.00"},
	}
	for _, tc := range cases {
		if got := FormatUSD(decimal.RequireFromString(tc.in)); got != tc.want {
			t.Errorf("FormatUSD(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
	if FormatInt(1234567) != "1,234,567" || FormatInt(-1000) != "-1,000" {
		t.Error("FormatInt grouping wrong")
	}
	if FormatNumber(12) != "12" || FormatNumber(1.5) != "1.50" {
		t.Error("FormatNumber wrong")
	}
}

func TestBuildChartMultiSeries(t *testing.T) {
	spec := QuerySpec{Intent: "chart", GroupBy: []string{"month", "status"}, Aggregation: "sum", Visualize: "stacked_bar"}
	groups := GroupAndAggregate(spendView(), spec.GroupBy, "amount", "sum", "date_asc", 0)
	chart := BuildChart(spec, groups)
	if chart == nil {
		t.Fatal("nil chart")
	}
	if len(chart.Series) != 2 {
		t.Fatalf("series = %d, want 2", len(chart.Series))
	}
	for _, s := range chart.Series {
		if len(s.Data) != 3 {
			t.Fatalf("series %s has %d points", s.Name, len(s.Data))
		}
	}
	if chart.XAxis != "Month" || !chart.ShowGrid {
		t.Errorf("chart axes = %+v", chart)
	}
	if BuildChart(spec, nil) != nil {
		t.Error("no groups must yield nil chart")
	}
}

func TestBuildTableList(t *testing.T) {
	spec := QuerySpec{Aggregation: "list", Title: "All"}
	table := BuildTable(spec, nil, spendView(), "amount")
	if len(table.Rows) != len(spendRows) || len(table.Columns) != 4 {
		t.Fatalf("table %dx%d", len(table.Rows), len(table.Columns))
	}
	if table.Summary.Values["amount"] != "$8,100.00" {
		t.Errorf("summary = %v", table.Summary.Values)
	}
}

func TestExecuteText(t *testing.T) {
	spec := QuerySpec{
		Filters:     Filters{Dimensions: map[string][]string{"status": {"Suspected"}}},
		Aggregation: "sum",
		Reply:       "Suspected spend is {total} across {count} invoices{bogus}.",
	}
	res, err := Execute(spec, spendView())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Type != "text" || res.TextData.Value != "$2,600.00" {
		t.Fatalf("result = %+v", res.TextData)
	}
	if res.Reply != "Suspected spend is $2,600.00 across 2 invoices." {
		t.Errorf("reply = %q", res.Reply)
	}
}

func TestExecuteChartAndTable(t *testing.T) {
	res, err := Execute(QuerySpec{Intent: "chart", GroupBy: []string{"vendor"}, Aggregation: "count", SortBy: "value_desc"}, spendView())
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != "chart" || res.ChartConfig.Series[0].Data[0].Value != 2 {
		t.Fatalf("chart = %+v", res.ChartConfig)
	}

	res, err = Execute(QuerySpec{Intent: "table", GroupBy: []string{"vendor"}}, spendView())
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != "table" || res.TableData.Summary.Values["count"] != "5" {
		t.Fatalf("table = %+v", res.TableData)
	}
	if !strings.HasPrefix(res.Reply, "Found 5 records totalling $8,100.00") {
		t.Errorf("default reply = %q", res.Reply)
	}
}

func TestNormalizeChartDefaultsToBar(t *testing.T) {
	spec := NormalizeQuerySpec(QuerySpec{Intent: "chart", GroupBy: []string{"vendor"}})
	if spec.Visualize != "bar" {
		t.Fatalf("visualize = %q, want bar", spec.Visualize)
	}

	spec = NormalizeQuerySpec(QuerySpec{Intent: "chart", GroupBy: []string{"vendor"}, Visualize: "pie"})
	if spec.Visualize != "pie" {
		t.Errorf("explicit visualize overwritten: %q", spec.Visualize)
	}

	res, err := Execute(QuerySpec{Intent: "chart", GroupBy: []string{"vendor"}}, spendView())
	if err != nil {
		t.Fatalf("chart without visualize rejected: %v", err)
	}
	if res.ChartConfig == nil || res.ChartConfig.ChartType != "bar" {
		t.Fatalf("chart = %+v", res.ChartConfig)
	}
}

func TestMoneyMeasureFormatting(t *testing.T) {
	res, err := Execute(QuerySpec{Reply: "{total}"}, spendView(), WithMoneyMeasures())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "8,100" {
		t.Errorf("plain reply = %q, want 8,100", res.Reply)
	}

	res, err = Execute(QuerySpec{Reply: "{total}"}, spendView())
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "$8,100.00" {
		t.Errorf("money reply = %q", res.Reply)
	}
}

func TestExecuteNormalizesChartWithoutGroupBy(t *testing.T) {
	res, err := Execute(QuerySpec{Intent: "chart"}, spendView())
	if err != nil {
		t.Fatal(err)
	}
	if res.Type != "text" {
		t.Fatalf("type = %s, want text", res.Type)
	}
}

func TestExecuteRejectsInvalidSpecs(t *testing.T) {
	bad := []QuerySpec{
		{Aggregation: "median"},
		{GroupBy: []string{"region"}},
		{Filters: Filters{Dimensions: map[string][]string{"region": {"x"}}}},
		{Measure: "weight"},
		{Limit: -1},
	}
	for _, spec := range bad {
		if _, err := Execute(spec, spendView()); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Execute(%+v) err = %v, want ErrInvalidQuery", spec, err)
		}
	}
}

func TestExecuteNoMatches(t *testing.T) {
	res, err := Execute(QuerySpec{Filters: Filters{Dimensions: map[string][]string{"vendor": {"Stryker"}}}}, spendView())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Reply, "No records match") {
		t.Errorf("reply = %q", res.Reply)
	}
}
