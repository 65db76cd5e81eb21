package stats

import (
	"strconv"

	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/mockdata"
)

// ============================================================================
// RECORD VIEWS: engine adapters over the mock dataset
// ============================================================================

// Risk buckets used by the vendor summary and the risk distribution chart.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
	RiskNew    = "New"

	highRiskAbove   = 70
	mediumRiskAbove = 40
)

// RiskLevel buckets a risk score: High above 70, Medium above 40, Low otherwise.
func RiskLevel(score int) string {
	switch {
	case score > highRiskAbove:
		return RiskHigh
	case score > mediumRiskAbove:
		return RiskMedium
	default:
		return RiskLow
	}
}

func hours(p *int) float64 {
	if p == nil {
		return 0
	}
	return float64(*p)
}

// InvoiceAdapter exposes invoices to the engine.
var InvoiceAdapter = engine.NewDomainAdapter[mockdata.Invoice]().
	Dimension("id", func(i mockdata.Invoice) string { return i.ID }).
	Dimension("vendor", func(i mockdata.Invoice) string { return i.Vendor }).
	Dimension("company", func(i mockdata.Invoice) string { return i.Company }).
	Dimension("status", func(i mockdata.Invoice) string { return string(i.Status) }).
	Dimension("inspector", func(i mockdata.Invoice) string { return i.InspectorName() }).
	Dimension("operator", func(i mockdata.Invoice) string { return i.Operator }).
	Dimension("source", func(i mockdata.Invoice) string { return string(i.Source) }).
	Dimension("month", func(i mockdata.Invoice) string { return i.Month() }).
	Dimension("false_positive", func(i mockdata.Invoice) string { return strconv.FormatBool(i.IsFalsePositive) }).
	Dimension("resolved", func(i mockdata.Invoice) string { return strconv.FormatBool(i.ResolutionTime != nil) }).
	Measure("amount", func(i mockdata.Invoice) float64 { return i.Amount.InexactFloat64() }).
	Measure("duplicate_score", func(i mockdata.Invoice) float64 { return float64(i.DuplicateScore) }).
	Measure("resolution_time", func(i mockdata.Invoice) float64 { return hours(i.ResolutionTime) })

// VendorAdapter exposes vendors to the engine.
var VendorAdapter = engine.NewDomainAdapter[mockdata.Vendor]().
	Dimension("name", func(v mockdata.Vendor) string { return v.Name }).
	Dimension("status", func(v mockdata.Vendor) string { return string(v.Status) }).
	Dimension("risk_level", func(v mockdata.Vendor) string { return RiskLevel(v.RiskScore) }).
	Measure("total_spend", func(v mockdata.Vendor) float64 { return v.TotalSpend.InexactFloat64() }).
	Measure("risk_score", func(v mockdata.Vendor) float64 { return float64(v.RiskScore) }).
	Measure("trust_score", func(v mockdata.Vendor) float64 { return float64(v.TrustScore) }).
	Measure("anomalies", func(v mockdata.Vendor) float64 { return float64(v.Anomalies) })

// InvoiceView binds invoices without copying.
func InvoiceView(invoices []mockdata.Invoice) engine.RecordView {
	return InvoiceAdapter.Bind(invoices)
}

// VendorView binds vendors without copying.
func VendorView(vendors []mockdata.Vendor) engine.RecordView {
	return VendorAdapter.Bind(vendors)
}

// Forecast point kinds.
const (
	KindHistory  = "history"
	KindForecast = "forecast"
)

// ForecastPoint is one month of one vendor's prediction series.
type ForecastPoint struct {
	Vendor string  `json:"vendor"`
	Month  string  `json:"month"`
	Kind   string  `json:"kind"`
	Value  float64 `json:"value"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// ForecastPoints flattens predictions into monthly points, history first.
// History points carry their own value as both bounds.
func ForecastPoints(predictions []mockdata.Prediction) []ForecastPoint {
	var points []ForecastPoint
	for _, p := range predictions {
		for i, v := range p.History {
			points = append(points, ForecastPoint{
				Vendor: p.VendorName, Month: label(p.HistoryMonths, i), Kind: KindHistory,
				Value: v, Lower: v, Upper: v,
			})
		}
		for i, v := range p.Forecast {
			fp := ForecastPoint{Vendor: p.VendorName, Month: label(p.ForecastMonths, i), Kind: KindForecast, Value: v}
			if i < len(p.ConfidenceLower) {
				fp.Lower = p.ConfidenceLower[i]
			}
			if i < len(p.ConfidenceUpper) {
				fp.Upper = p.ConfidenceUpper[i]
			}
			points = append(points, fp)
		}
	}
	return points
}

func label(months []string, i int) string {
	if i < len(months) {
		return months[i]
	}
	return ""
}

// ForecastAdapter exposes forecast points to the engine.
var ForecastAdapter = engine.NewDomainAdapter[ForecastPoint]().
	Dimension("vendor", func(p ForecastPoint) string { return p.Vendor }).
	Dimension("month", func(p ForecastPoint) string { return p.Month }).
	Dimension("kind", func(p ForecastPoint) string { return p.Kind }).
	Measure("value", func(p ForecastPoint) float64 { return p.Value }).
	Measure("lower", func(p ForecastPoint) float64 { return p.Lower }).
	Measure("upper", func(p ForecastPoint) float64 { return p.Upper })

// ForecastView flattens and binds predictions.
func ForecastView(predictions []mockdata.Prediction) engine.RecordView {
	return ForecastAdapter.Bind(ForecastPoints(predictions))
}
