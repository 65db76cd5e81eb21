package mockdata

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// MOCK DATASET TYPES
// ============================================================================
// Plain records. Nothing is persisted and nothing is mutated after Generate
// returns. Vendor ↔ Invoice and Inspector ↔ Invoice links are by name only.
// ============================================================================

// VendorStatus is Active or Inactive.
type VendorStatus string

const (
	VendorActive   VendorStatus = "Active"
	VendorInactive VendorStatus = "Inactive"
)

// InvoiceStatus is Suspected or Cleared.
type InvoiceStatus string

const (
	InvoiceSuspected InvoiceStatus = "Suspected"
	InvoiceCleared   InvoiceStatus = "Cleared"
)

// InvoiceSource is the ingestion channel of an invoice.
type InvoiceSource string

const (
	SourceOCR    InvoiceSource = "OCR"
	SourceEDI    InvoiceSource = "EDI"
	SourceManual InvoiceSource = "Manual"
)

// Vendor is a supplier profile with risk and trust scores in [0,100].
type Vendor struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Status     VendorStatus    `json:"status"`
	RiskScore  int             `json:"riskScore"`
	TrustScore int             `json:"trustScore"`
	TotalSpend decimal.Decimal `json:"totalSpend"`
	Anomalies  int             `json:"anomalies"`
}

// Invoice is a single ingested invoice.
// Inspector, Confidence and ResolutionTime are set only when Status is Suspected.
type Invoice struct {
	ID              string           `json:"id"`
	Vendor          string           `json:"vendor"`
	Company         string           `json:"company"`
	Amount          decimal.Decimal  `json:"amount"`
	Date            time.Time        `json:"date"`
	Status          InvoiceStatus    `json:"status"`
	Inspector       *string          `json:"inspector"`
	Confidence      *decimal.Decimal `json:"confidence"`
	Operator        string           `json:"operator"`
	DuplicateScore  int              `json:"duplicateScore"`
	Source          InvoiceSource    `json:"source"`
	ResolutionTime  *int             `json:"resolutionTime"` // hours
	IsFalsePositive bool             `json:"isFalsePositive"`
}

// IsSuspected reports whether the invoice was flagged.
func (i Invoice) IsSuspected() bool { return i.Status == InvoiceSuspected }

// InspectorName returns the flagging inspector, or "" for cleared invoices.
func (i Invoice) InspectorName() string {
	if i.Inspector == nil {
		return ""
	}
	return *i.Inspector
}

// Month returns the invoice month as "Jan-2006".
func (i Invoice) Month() string { return i.Date.Format(MonthLayout) }

// InspectorStat is a descriptive per-inspector tally.
type InspectorStat struct {
	Name           string          `json:"name"`
	DetectedAmount decimal.Decimal `json:"detectedAmount"`
	FalsePositives int             `json:"falsePositives"`
	ConfirmedFraud int             `json:"confirmedFraud"`
}

// Alert is a forecast warning attached to a Prediction.
type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Prediction is a per-vendor monthly spend history and short forecast.
type Prediction struct {
	VendorID        int       `json:"vendorId"`
	VendorName      string    `json:"vendorName"`
	Category        string    `json:"category"`
	History         []float64 `json:"history"`
	HistoryMonths   []string  `json:"historyMonths"`
	Forecast        []float64 `json:"forecast"`
	ForecastMonths  []string  `json:"forecastMonths"`
	ConfidenceLower []float64 `json:"confidenceLower"`
	ConfidenceUpper []float64 `json:"confidenceUpper"`
	Alerts          []Alert   `json:"alerts"`
}

// Dataset is the whole mock dataset of one session.
type Dataset struct {
	Vendors     []Vendor        `json:"vendors"`
	Invoices    []Invoice       `json:"invoices"`
	Inspectors  []InspectorStat `json:"inspectors"`
	Predictions []Prediction    `json:"predictions"`
	GeneratedAt time.Time       `json:"generatedAt"`

	invoiceIndex map[string]int
}

// NewDataset assembles a Dataset from prepared collections.
// Tests use it to inject fixed data instead of random draws.
func NewDataset(vendors []Vendor, invoices []Invoice, inspectors []InspectorStat, predictions []Prediction) *Dataset {
	d := &Dataset{
		Vendors:     vendors,
		Invoices:    invoices,
		Inspectors:  inspectors,
		Predictions: predictions,
	}
	d.buildIndex()
	return d
}

func (d *Dataset) buildIndex() {
	d.invoiceIndex = make(map[string]int, len(d.Invoices))
	for i, inv := range d.Invoices {
		if _, dup := d.invoiceIndex[inv.ID]; !dup {
			d.invoiceIndex[inv.ID] = i
		}
	}
}

// Invoice looks up an invoice by exact id.
func (d *Dataset) Invoice(id string) (Invoice, bool) {
	if d == nil {
		return Invoice{}, false
	}
	if d.invoiceIndex == nil {
		for _, inv := range d.Invoices {
			if inv.ID == id {
				return inv, true
			}
		}
		return Invoice{}, false
	}
	idx, ok := d.invoiceIndex[id]
	if !ok {
		return Invoice{}, false
	}
	return d.Invoices[idx], true
}

// Vendor looks up a vendor by id.
func (d *Dataset) Vendor(id int) (Vendor, bool) {
	if d == nil {
		return Vendor{}, false
	}
	for _, v := range d.Vendors {
		if v.ID == id {
			return v, true
		}
	}
	return Vendor{}, false
}

// InvoicesForVendor returns invoices whose vendor name equals name.
func (d *Dataset) InvoicesForVendor(name string) []Invoice {
	if d == nil {
		return nil
	}
	var out []Invoice
	for _, inv := range d.Invoices {
		if inv.Vendor == name {
			out = append(out, inv)
		}
	}
	return out
}

// Prediction returns the forecast for a vendor id.
func (d *Dataset) Prediction(vendorID int) (Prediction, bool) {
	if d == nil {
		return Prediction{}, false
	}
	for _, p := range d.Predictions {
		if p.VendorID == vendorID {
			return p, true
		}
	}
	return Prediction{}, false
}
