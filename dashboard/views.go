package dashboard

import (
	"fmt"
	"strconv"

	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/mockdata"
	"github.com/spektr-org/spendshark/stats"
)

// ============================================================================
// DASHBOARD VIEWS: charts and tables rendered on the dashboard page
// ============================================================================

var (
	spendByVendorSpec = engine.QuerySpec{
		Intent: "chart", GroupBy: []string{"vendor"}, Aggregation: "sum",
		SortBy: "value_desc", Visualize: "bar", Title: "Spend by Vendor",
	}
	suspectedByInspectorSpec = engine.QuerySpec{
		Intent:      "chart",
		Filters:     engine.Filters{Dimensions: map[string][]string{"status": {string(mockdata.InvoiceSuspected)}}},
		GroupBy:     []string{"inspector"},
		Aggregation: "count", SortBy: "value_desc", Visualize: "bar", Title: "Suspected Invoices by Inspector",
	}
	monthlyStatusSpec = engine.QuerySpec{
		Intent: "chart", GroupBy: []string{"month", "status"}, Aggregation: "sum",
		SortBy: "date_asc", Visualize: "stacked_bar", Title: "Monthly Spend by Status",
	}
	forecastSpec = engine.QuerySpec{
		Intent: "chart", GroupBy: []string{"month", "vendor"}, Measure: "value", Aggregation: "sum",
		SortBy: "date_asc", Visualize: "line", Title: "Spend Forecast",
	}
	sourcesSpec = engine.QuerySpec{
		Intent: "table", GroupBy: []string{"source"}, Aggregation: "sum",
		SortBy: "value_desc", Title: "Spend by Source",
	}
)

// Charts returns the dashboard charts. Charts without data are omitted.
func (s *Session) Charts() ([]*engine.ChartConfig, error) {
	charts := []*engine.ChartConfig{s.riskDistribution()}

	for _, spec := range []engine.QuerySpec{spendByVendorSpec, suspectedByInspectorSpec, monthlyStatusSpec} {
		res, err := s.Query(spec)
		if err != nil {
			return nil, fmt.Errorf("chart %q: %w", spec.Title, err)
		}
		charts = append(charts, res.ChartConfig)
	}

	res, err := engine.Execute(forecastSpec, s.Forecasts(),
		engine.WithDefaultMeasure("value"), engine.WithMoneyMeasures("value", "lower", "upper"))
	if err != nil {
		return nil, fmt.Errorf("chart %q: %w", forecastSpec.Title, err)
	}
	charts = append(charts, res.ChartConfig)

	out := charts[:0]
	for _, c := range charts {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// riskDistribution plots the vendor risk buckets, including the random New bucket.
func (s *Session) riskDistribution() *engine.ChartConfig {
	b := s.vendorSummary.RiskBuckets
	var groups []engine.Group
	for _, bucket := range []struct {
		label string
		count int
	}{
		{stats.RiskHigh, b.High},
		{stats.RiskMedium, b.Medium},
		{stats.RiskLow, b.Low},
		{stats.RiskNew, b.New},
	} {
		groups = append(groups, engine.Group{Key: bucket.label, Label: bucket.label, Value: float64(bucket.count), Count: bucket.count})
	}
	spec := engine.QuerySpec{Aggregation: "count", Visualize: "pie", Title: "Vendor Risk Distribution"}
	return engine.BuildChart(spec, groups)
}

// Tables returns the vendor, invoice, operator and source tables.
func (s *Session) Tables(topN int) ([]*engine.TableData, error) {
	vendors := engine.BuildTable(engine.QuerySpec{Aggregation: "list", Title: "Vendors"}, nil,
		s.Vendors(), "total_spend", engine.WithMoneyMeasures("total_spend"))

	invoices, err := s.Query(engine.QuerySpec{Aggregation: "list", Title: "Invoices"})
	if err != nil {
		return nil, fmt.Errorf("invoice table: %w", err)
	}
	sources, err := s.Query(sourcesSpec)
	if err != nil {
		return nil, fmt.Errorf("source table: %w", err)
	}

	tables := []*engine.TableData{vendors}
	if invoices.TableData != nil {
		tables = append(tables, invoices.TableData)
	}
	tables = append(tables, operatorTable(s.Operators(topN)))
	if sources.TableData != nil {
		tables = append(tables, sources.TableData)
	}
	return tables, nil
}

func operatorTable(ops []stats.OperatorSummary) *engine.TableData {
	table := &engine.TableData{
		Title: "Operators",
		Columns: []engine.Column{
			{Key: "operator", Label: "Operator", Type: "text", Align: "left"},
			{Key: "processed", Label: "Processed", Type: "number", Align: "right"},
			{Key: "suspected", Label: "Suspected", Type: "number", Align: "right"},
			{Key: "false_positives", Label: "False positives", Type: "number", Align: "right"},
			{Key: "amount", Label: "Amount", Type: "currency", Align: "right"},
			{Key: "resolution_time", Label: "Avg resolution (h)", Type: "number", Align: "right"},
		},
		Rows: [][]string{},
	}
	processed := 0
	for _, op := range ops {
		table.Rows = append(table.Rows, []string{
			op.Operator,
			strconv.Itoa(op.Processed),
			strconv.Itoa(op.Suspected),
			strconv.Itoa(op.FalsePositives),
			op.TotalAmount.StringFixed(2),
			strconv.FormatFloat(op.AvgResolutionHours, 'f', 2, 64),
		})
		processed += op.Processed
	}
	table.Summary = &engine.Summary{
		Label:  "Total",
		Values: map[string]string{"processed": strconv.Itoa(processed)},
	}
	return table
}
