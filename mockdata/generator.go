package mockdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// GENERATOR: uniform random draws over the documented ranges
// ============================================================================
// Generate() with no options is non-deterministic. WithSeed + WithClock make
// the dataset reproducible, which is what the tests rely on.
// ============================================================================

// Generate builds a complete mock dataset.
func Generate(opts ...Option) *Dataset {
	cfg := applyOptions(opts)
	g := &generator{rng: cfg.rng, now: cfg.now()}

	vendors := g.vendors()
	d := &Dataset{
		Vendors:     vendors,
		Invoices:    g.invoices(vendors, cfg.invoiceCount),
		Inspectors:  g.inspectors(),
		Predictions: g.predictions(vendors),
		GeneratedAt: g.now,
	}
	d.buildIndex()
	return d
}

type generator struct {
	rng *rand.Rand
	now time.Time
}

func (g *generator) vendors() []Vendor {
	vendors := make([]Vendor, 0, len(VendorNames))
	for i, name := range VendorNames {
		status := VendorActive
		if g.rng.Float64() > 0.8 {
			status = VendorInactive
		}
		vendors = append(vendors, Vendor{
			ID:         i + 1,
			Name:       name,
			Status:     status,
			RiskScore:  g.rng.IntN(100),
			TrustScore: g.rng.IntN(100),
			TotalSpend: g.currency(minVendorSpend, maxVendorSpend),
			Anomalies:  g.rng.IntN(5),
		})
	}
	return vendors
}

func (g *generator) invoices(vendors []Vendor, n int) []Invoice {
	invoices := make([]Invoice, 0, n)
	for i := 0; i < n; i++ {
		suspected := g.rng.Float64() > 0.9
		vendor := vendors[g.rng.IntN(len(vendors))]
		falsePositive := suspected && g.rng.Float64() > 0.7

		inv := Invoice{
			ID:              fmt.Sprintf("INV-%d", firstInvoiceNumber+i),
			Vendor:          vendor.Name,
			Company:         pick(g.rng, Companies),
			Amount:          g.currency(minInvoiceTotal, maxInvoiceTotal),
			Date:            g.date(invoiceEpoch, g.now),
			Status:          InvoiceCleared,
			IsFalsePositive: falsePositive,
		}

		if suspected {
			inspector := pick(g.rng, InspectorNames)
			confidence := decimal.NewFromFloat(g.rng.Float64()*(maxConfidence-minConfidence) + minConfidence).Round(2)
			hours := g.rng.IntN(48) + 2

			inv.Status = InvoiceSuspected
			inv.Inspector = &inspector
			inv.Confidence = &confidence
			inv.ResolutionTime = &hours
			inv.DuplicateScore = g.rng.IntN(40) + 60
		} else {
			inv.DuplicateScore = g.rng.IntN(20)
		}
		inv.Operator = pick(g.rng, Operators)
		inv.Source = pick(g.rng, Sources)

		invoices = append(invoices, inv)
	}
	return invoices
}

func (g *generator) inspectors() []InspectorStat {
	stats := make([]InspectorStat, 0, len(InspectorNames))
	for _, name := range InspectorNames {
		stats = append(stats, InspectorStat{
			Name:           name,
			DetectedAmount: g.currency(minDetected, maxDetected),
			FalsePositives: g.rng.IntN(20),
			ConfirmedFraud: g.rng.IntN(50),
		})
	}
	return stats
}

// predictions derives a monthly history and forecast from each vendor's total spend.
func (g *generator) predictions(vendors []Vendor) []Prediction {
	histLabels, fcLabels := monthLabels(g.now)

	out := make([]Prediction, 0, len(vendors))
	for _, v := range vendors {
		base := v.TotalSpend.InexactFloat64() / 12
		trend := g.rng.Float64()*0.2 - 0.1

		history := make([]float64, historyMonths)
		for i := range history {
			noise := g.rng.Float64() * base * 0.1
			history[i] = round2(base*(1+trend*float64(i)) + noise)
		}

		forecast := make([]float64, forecastMonths)
		lower := make([]float64, forecastMonths)
		upper := make([]float64, forecastMonths)
		for i := range forecast {
			val := base * (1 + trend*float64(historyMonths+i))
			forecast[i] = round2(val)
			lower[i] = round2(val * (1 - confidenceBand))
			upper[i] = round2(val * (1 + confidenceBand))
		}

		alerts := []Alert{}
		if v.RiskScore > spikeRiskThreshold {
			alerts = append(alerts, Alert{
				Type:     "Spike",
				Message:  "Projected spend is 45% higher than historical average.",
				Severity: "High",
			})
		}
		if v.Status == VendorActive && g.rng.Float64() > 0.8 {
			alerts = append(alerts, Alert{
				Type:     "Off-Cycle",
				Message:  "Payment frequency deviation detected.",
				Severity: "Medium",
			})
		}

		out = append(out, Prediction{
			VendorID:        v.ID,
			VendorName:      v.Name,
			Category:        "General",
			History:         history,
			HistoryMonths:   histLabels,
			Forecast:        forecast,
			ForecastMonths:  fcLabels,
			ConfidenceLower: lower,
			ConfidenceUpper: upper,
			Alerts:          alerts,
		})
	}
	return out
}

// ============================================================================
// DRAW HELPERS
// ============================================================================

// currency draws a uniform amount in [lo, hi) with two decimal places.
func (g *generator) currency(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(g.rng.Float64()*(hi-lo) + lo).Round(2)
}

// date draws a uniform instant in [start, end]. A clock before start pins to start.
func (g *generator) date(start, end time.Time) time.Time {
	span := end.Sub(start)
	if span <= 0 {
		return start
	}
	return start.Add(time.Duration(g.rng.Float64() * float64(span)))
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

// monthLabels returns the six months before now and the current plus next month.
func monthLabels(now time.Time) (history, forecast []string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := historyMonths; i > 0; i-- {
		history = append(history, first.AddDate(0, -i, 0).Format(MonthLayout))
	}
	for i := 0; i < forecastMonths; i++ {
		forecast = append(forecast, first.AddDate(0, i, 0).Format(MonthLayout))
	}
	return history, forecast
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
