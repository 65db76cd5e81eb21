package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/mockdata"
	"github.com/spektr-org/spendshark/schema"
	"github.com/spektr-org/spendshark/stats"
	"github.com/spektr-org/spendshark/widget"
)

// Session is one dashboard visit. Data is never mutated; only the chat
// transcript and the toggles change.
type Session struct {
	ID        string            `json:"id"`
	Data      *mockdata.Dataset `json:"-"`
	Panel     *widget.ChatPanel `json:"-"`
	Sidebar   *widget.Sidebar   `json:"-"`
	CreatedAt time.Time         `json:"createdAt"`

	vendorSummary stats.VendorSummary
	ctx           context.Context
	cancel        context.CancelFunc
}

// Context is cancelled when the session is deleted. Chat replies are
// scheduled on it so they outlive the request that submitted them.
func (s *Session) Context() context.Context { return s.ctx }

// Invoices is the invoice record view.
func (s *Session) Invoices() engine.RecordView { return stats.InvoiceView(s.Data.Invoices) }

// Vendors is the vendor record view.
func (s *Session) Vendors() engine.RecordView { return stats.VendorView(s.Data.Vendors) }

// Forecasts is the flattened prediction view.
func (s *Session) Forecasts() engine.RecordView { return stats.ForecastView(s.Data.Predictions) }

var invoiceMeasureHints = map[string]schema.MeasureHint{
	"amount":          {Description: "Invoice amount in USD", Unit: "currency", IsCurrency: true},
	"duplicate_score": {Description: "Likelihood the invoice duplicates another", Unit: "points"},
	"resolution_time": {Description: "Hours to resolve a suspected invoice", Unit: "hours"},
}

// Schema describes the invoice view accepted by Query.
func (s *Session) Schema() schema.Config {
	cfg := schema.Describe("invoices", s.Invoices(), invoiceMeasureHints)
	cfg.Description = "Invoices ingested for the current session"
	return cfg
}

// Query runs an analytics QuerySpec against the invoice view.
func (s *Session) Query(spec engine.QuerySpec) (*engine.Result, error) {
	return engine.Execute(spec, s.Invoices(), invoiceOptions()...)
}

func invoiceOptions() []engine.Option {
	var money []string
	for key, h := range invoiceMeasureHints {
		if h.IsCurrency {
			money = append(money, key)
		}
	}
	return []engine.Option{engine.WithDefaultMeasure("amount"), engine.WithMoneyMeasures(money...)}
}

// VendorStats is the vendor summary drawn when the session was created.
func (s *Session) VendorStats() stats.VendorSummary { return s.vendorSummary }

// ROI relates detections to platformCost.
func (s *Session) ROI(platformCost decimal.Decimal) stats.ROISummary {
	return stats.ROI(s.Data.Inspectors, s.Data.Invoices, platformCost)
}

// Operators ranks the busiest operators.
func (s *Session) Operators(topN int) []stats.OperatorSummary {
	return stats.Operators(s.Data.Invoices, topN)
}

// Sources breaks invoices down by ingestion source.
func (s *Session) Sources() []stats.SourceSummary {
	return stats.Sources(s.Data.Invoices)
}
