// Package stats derives flat summary metrics from a mock dataset.
// Every function is pure apart from the caller-supplied random source.
package stats

import (
	"math/rand/v2"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/mockdata"
)

// DefaultTopN is the size of top-N lists when the caller passes 0.
const DefaultTopN = 5

// maxNewVendors bounds the random "New" risk bucket.
const maxNewVendors = 5

// RiskBuckets counts vendors per risk level.
// New is drawn at random and does not correspond to any vendor.
type RiskBuckets struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	New    int `json:"new"`
}

// VendorRisk is one entry of the riskiest-vendors list.
type VendorRisk struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	RiskScore int    `json:"riskScore"`
	Level     string `json:"level"`
}

// VendorSummary aggregates the vendor collection.
type VendorSummary struct {
	Total        int             `json:"total"`
	Active       int             `json:"active"`
	Inactive     int             `json:"inactive"`
	AverageRisk  float64         `json:"averageRisk"`
	AverageTrust float64         `json:"averageTrust"`
	TotalSpend   decimal.Decimal `json:"totalSpend"`
	Anomalies    int             `json:"anomalies"`
	RiskBuckets  RiskBuckets     `json:"riskBuckets"`
	Riskiest     []VendorRisk    `json:"riskiest"`
}

// Vendors summarizes vendors. rng feeds the New bucket; nil leaves it at 0.
func Vendors(vendors []mockdata.Vendor, rng *rand.Rand) VendorSummary {
	view := VendorView(vendors)
	summary := VendorSummary{
		Total:        view.Len(),
		Active:       engine.Where(view, "status", string(mockdata.VendorActive)).Len(),
		Inactive:     engine.Where(view, "status", string(mockdata.VendorInactive)).Len(),
		AverageRisk:  engine.RoundTo2(engine.AvgMeasure(view, "risk_score")),
		AverageTrust: engine.RoundTo2(engine.AvgMeasure(view, "trust_score")),
		Anomalies:    int(engine.SumMeasure(view, "anomalies")),
		TotalSpend:   decimal.Zero,
		Riskiest:     riskiest(vendors, DefaultTopN),
	}
	for _, v := range vendors {
		summary.TotalSpend = summary.TotalSpend.Add(v.TotalSpend)
	}

	for _, g := range engine.GroupAndAggregate(view, []string{"risk_level"}, "risk_score", "count", "", 0) {
		switch g.Key {
		case RiskHigh:
			summary.RiskBuckets.High = g.Count
		case RiskMedium:
			summary.RiskBuckets.Medium = g.Count
		case RiskLow:
			summary.RiskBuckets.Low = g.Count
		}
	}
	if rng != nil {
		summary.RiskBuckets.New = rng.IntN(maxNewVendors)
	}
	return summary
}

func riskiest(vendors []mockdata.Vendor, n int) []VendorRisk {
	sorted := slices.Clone(vendors)
	slices.SortStableFunc(sorted, func(a, b mockdata.Vendor) int { return b.RiskScore - a.RiskScore })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	out := make([]VendorRisk, 0, len(sorted))
	for _, v := range sorted {
		out = append(out, VendorRisk{ID: v.ID, Name: v.Name, RiskScore: v.RiskScore, Level: RiskLevel(v.RiskScore)})
	}
	return out
}

// ROISummary relates detection results to the platform cost.
type ROISummary struct {
	DetectedAmount     decimal.Decimal `json:"detectedAmount"`
	ConfirmedFraud     int             `json:"confirmedFraud"`
	FalsePositives     int             `json:"falsePositives"`
	Precision          float64         `json:"precision"` // confirmed / (confirmed + false positives)
	SuspectedCount     int             `json:"suspectedCount"`
	SuspectedAmount    decimal.Decimal `json:"suspectedAmount"`
	PreventedLoss      decimal.Decimal `json:"preventedLoss"`
	PlatformCost       decimal.Decimal `json:"platformCost"`
	ROIMultiple        float64         `json:"roiMultiple"`
	AvgResolutionHours float64         `json:"avgResolutionHours"`
}

// ROI computes detection return on investment. Prevented loss is the amount
// of suspected invoices that were not false positives.
func ROI(inspectors []mockdata.InspectorStat, invoices []mockdata.Invoice, platformCost decimal.Decimal) ROISummary {
	summary := ROISummary{
		DetectedAmount:  decimal.Zero,
		SuspectedAmount: decimal.Zero,
		PreventedLoss:   decimal.Zero,
		PlatformCost:    platformCost,
	}
	for _, in := range inspectors {
		summary.DetectedAmount = summary.DetectedAmount.Add(in.DetectedAmount)
		summary.ConfirmedFraud += in.ConfirmedFraud
		summary.FalsePositives += in.FalsePositives
	}
	if flagged := summary.ConfirmedFraud + summary.FalsePositives; flagged > 0 {
		summary.Precision = roundTo4(float64(summary.ConfirmedFraud) / float64(flagged))
	}

	for _, inv := range invoices {
		if !inv.IsSuspected() {
			continue
		}
		summary.SuspectedCount++
		summary.SuspectedAmount = summary.SuspectedAmount.Add(inv.Amount)
		if !inv.IsFalsePositive {
			summary.PreventedLoss = summary.PreventedLoss.Add(inv.Amount)
		}
	}
	if platformCost.IsPositive() {
		summary.ROIMultiple = summary.PreventedLoss.DivRound(platformCost, 2).InexactFloat64()
	}

	resolved := engine.Where(InvoiceView(invoices), "resolved", "true")
	summary.AvgResolutionHours = engine.RoundTo2(engine.AvgMeasure(resolved, "resolution_time"))
	return summary
}

func roundTo4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}

// OperatorSummary is the workload of one operator.
type OperatorSummary struct {
	Operator           string          `json:"operator"`
	Processed          int             `json:"processed"`
	Suspected          int             `json:"suspected"`
	FalsePositives     int             `json:"falsePositives"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	AvgResolutionHours float64         `json:"avgResolutionHours"`
}

// Operators ranks operators by processed invoices, keeping the first topN.
// topN <= 0 keeps DefaultTopN.
func Operators(invoices []mockdata.Invoice, topN int) []OperatorSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}
	groups := engine.GroupAndAggregate(InvoiceView(invoices), []string{"operator"}, "amount", "count", "value_desc", topN)

	out := make([]OperatorSummary, 0, len(groups))
	for _, g := range groups {
		resolved := engine.Where(g.View, "resolved", "true")
		out = append(out, OperatorSummary{
			Operator:           g.Key,
			Processed:          g.Count,
			Suspected:          engine.Where(g.View, "status", string(mockdata.InvoiceSuspected)).Len(),
			FalsePositives:     engine.Where(g.View, "false_positive", "true").Len(),
			TotalAmount:        money(engine.SumMeasure(g.View, "amount")),
			AvgResolutionHours: engine.RoundTo2(engine.AvgMeasure(resolved, "resolution_time")),
		})
	}
	return out
}

// SourceSummary is the invoice volume of one ingestion source.
type SourceSummary struct {
	Source string          `json:"source"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Sources counts invoices per ingestion source, busiest first.
func Sources(invoices []mockdata.Invoice) []SourceSummary {
	groups := engine.GroupAndAggregate(InvoiceView(invoices), []string{"source"}, "amount", "count", "value_desc", 0)

	out := make([]SourceSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, SourceSummary{
			Source: g.Key,
			Count:  g.Count,
			Amount: money(engine.SumMeasure(g.View, "amount")),
		})
	}
	return out
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
