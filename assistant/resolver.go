// Package assistant answers chat queries against a mock dataset.
//
// A query is offered to an ordered list of intents and the first one that
// claims it renders the reply:
//
//	invoice id  →  vendor name  →  help  →  fallback
//
// A query naming both an invoice id and a vendor always resolves as an
// invoice lookup. Nothing here returns an error; missing records degrade
// to a "not found" reply.
package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/mockdata"
)

// Kind names the classified purpose of a query.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindVendor   Kind = "vendor"
	KindHelp     Kind = "help"
	KindFallback Kind = "fallback"
)

// Reply is a resolved answer. InvoiceID and VendorID identify the record
// the answer is about, when there is one.
type Reply struct {
	Intent    Kind   `json:"intent"`
	Text      string `json:"text"`
	InvoiceID string `json:"invoiceId,omitempty"`
	VendorID  int    `json:"vendorId,omitempty"`
}

// Intent is one classifier in the dispatch list. Match reports whether
// the intent claims query and, when it does, the rendered reply.
type Intent struct {
	Kind  Kind
	Match func(data *mockdata.Dataset, query string) (Reply, bool)
}

// DefaultIntents returns the dispatch list in priority order.
func DefaultIntents() []Intent {
	return []Intent{
		{Kind: KindInvoice, Match: matchInvoice},
		{Kind: KindVendor, Match: matchVendor},
		{Kind: KindHelp, Match: matchHelp},
		{Kind: KindFallback, Match: matchFallback},
	}
}

// Resolver classifies queries against one dataset.
type Resolver struct {
	data    *mockdata.Dataset
	intents []Intent
}

// New creates a Resolver over data. A nil dataset answers every lookup
// with "not found".
func New(data *mockdata.Dataset) *Resolver {
	return &Resolver{data: data, intents: DefaultIntents()}
}

// Kinds lists the intents in the order they are tried.
func (r *Resolver) Kinds() []Kind {
	kinds := make([]Kind, len(r.intents))
	for i, in := range r.intents {
		kinds[i] = in.Kind
	}
	return kinds
}

// Resolve answers query with the first intent that claims it.
func (r *Resolver) Resolve(query string) Reply {
	for _, in := range r.intents {
		if reply, ok := in.Match(r.data, query); ok {
			reply.Intent = in.Kind
			return reply
		}
	}
	return Reply{Intent: KindFallback, Text: fallbackText}
}

// Greeting is the first bot message shown when the panel is created.
func Greeting() string {
	return greetingText
}

const (
	greetingText = "Hello! I'm your AI finance assistant. I can explain suspicious transactions, " +
		"analyze vendor history, or help you investigate anomalies.\n\n" +
		"Try asking: \"Why was invoice INV-1042 flagged?\""
	helpText = "I can analyze transaction risk, look up specific invoices by ID, and summarize vendor health. " +
		"Try asking 'Is McKesson risky?' or 'Check INV-1020'."
	fallbackText = "I'm not sure about that. Try asking for a specific Invoice ID (e.g., INV-1005) or Vendor Name."

	irregularRemark = "⚠️ This vendor has a history of billing irregularities."
	reliableRemark  = "✅ This vendor is generally reliable."
)

// Risk label thresholds.
const (
	highRiskAbove      = 50
	irregularRiskAbove = 80
)

var invoicePattern = regexp.MustCompile(`(?i)INV-\d+`)

func matchInvoice(data *mockdata.Dataset, query string) (Reply, bool) {
	token := invoicePattern.FindString(query)
	if token == "" {
		return Reply{}, false
	}
	id := strings.ToUpper(token)

	inv, ok := data.Invoice(id)
	if !ok {
		return Reply{
			InvoiceID: id,
			Text: fmt.Sprintf("I couldn't find invoice %s in the recent dataset. "+
				"It might be archived or hasn't been ingested yet.", id),
		}, true
	}

	if !inv.IsSuspected() {
		return Reply{
			InvoiceID: inv.ID,
			Text: fmt.Sprintf("Invoice %s for %s is currently Cleared. No anomalies detected.",
				inv.ID, engine.FormatUSD(inv.Amount)),
		}, true
	}

	confidence := decimal.Zero
	if inv.Confidence != nil {
		confidence = *inv.Confidence
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analysis for %s:\n", inv.ID)
	fmt.Fprintf(&b, "This invoice from %s was flagged by the %s.\n\n", inv.Vendor, inv.InspectorName())
	b.WriteString("Reasoning:\n")
	fmt.Fprintf(&b, "• Confidence Score: %s%%\n", confidence.Shift(2).StringFixed(1))
	fmt.Fprintf(&b, "• Risk Factor: High duplication probability with similar amount %s.\n", engine.FormatUSD(inv.Amount))
	b.WriteString("• Action: Recommended to hold payment until manual review.")
	return Reply{InvoiceID: inv.ID, Text: b.String()}, true
}

// matchVendor picks the first vendor in collection order whose name occurs
// in the query, not the longest one.
func matchVendor(data *mockdata.Dataset, query string) (Reply, bool) {
	if data == nil {
		return Reply{}, false
	}
	lower := strings.ToLower(query)
	for _, v := range data.Vendors {
		if v.Name == "" || !strings.Contains(lower, strings.ToLower(v.Name)) {
			continue
		}
		return Reply{VendorID: v.ID, Text: vendorProfile(v, len(data.InvoicesForVendor(v.Name)))}, true
	}
	return Reply{}, false
}

// RiskLabel is High above 50, Low otherwise.
func RiskLabel(riskScore int) string {
	if riskScore > highRiskAbove {
		return "High"
	}
	return "Low"
}

func vendorProfile(v mockdata.Vendor, invoices int) string {
	remark := reliableRemark
	if v.RiskScore > irregularRiskAbove {
		remark = irregularRemark
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Vendor Profile: %s\n", v.Name)
	fmt.Fprintf(&b, "• Trust Score: %d/100\n", v.TrustScore)
	fmt.Fprintf(&b, "• Risk Level: %s (%d)\n", RiskLabel(v.RiskScore), v.RiskScore)
	fmt.Fprintf(&b, "• Active Invoices: %d\n", invoices)
	fmt.Fprintf(&b, "• Total Spend: %s\n\n", engine.FormatUSD(v.TotalSpend))
	b.WriteString(remark)
	return b.String()
}

func matchHelp(_ *mockdata.Dataset, query string) (Reply, bool) {
	lower := strings.ToLower(query)
	if strings.Contains(lower, "help") || strings.Contains(lower, "what can you do") {
		return Reply{Text: helpText}, true
	}
	return Reply{}, false
}

func matchFallback(_ *mockdata.Dataset, _ string) (Reply, bool) {
	return Reply{Text: fallbackText}, true
}
