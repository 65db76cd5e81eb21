package assistant

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/mockdata"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

// fixture holds two vendors whose names overlap ("Medline" and
// "Medline Industries") so collection order is observable.
func fixture() *mockdata.Dataset {
	vendors := []mockdata.Vendor{
		{ID: 1, Name: "Medline", Status: mockdata.VendorActive, RiskScore: 85, TrustScore: 12, TotalSpend: dec("1234567.8")},
		{ID: 2, Name: "Medline Industries", Status: mockdata.VendorActive, RiskScore: 20, TrustScore: 90, TotalSpend: dec("10")},
		{ID: 3, Name: "Philips", Status: mockdata.VendorInactive, RiskScore: 50, TrustScore: 77, TotalSpend: dec("999.99")},
		{ID: 4, Name: "Stryker", Status: mockdata.VendorActive, RiskScore: 51, TrustScore: 33, TotalSpend: dec("0")},
	}
	date := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	invoices := []mockdata.Invoice{
		{ID: "INV-1000", Vendor: "Medline", Amount: dec("4250.5"), Date: date, Status: mockdata.InvoiceCleared},
		{ID: "INV-1001", Vendor: "Medline", Amount: dec("12000"), Date: date, Status: mockdata.InvoiceSuspected,
			Inspector: ptr("Duplicate Inspector"), Confidence: ptr(dec("0.87"))},
		{ID: "INV-1002", Vendor: "Philips", Amount: dec("100"), Date: date, Status: mockdata.InvoiceCleared},
	}
	return mockdata.NewDataset(vendors, invoices, nil, nil)
}

func TestKindsOrder(t *testing.T) {
	want := []Kind{KindInvoice, KindVendor, KindHelp, KindFallback}
	if got := New(fixture()).Kinds(); !slices.Equal(got, want) {
		t.Fatalf("Kinds() = %v, want %v", got, want)
	}
}

func TestClearedInvoice(t *testing.T) {
	reply := New(fixture()).Resolve("status of INV-1000 please")

	if reply.Intent != KindInvoice || reply.InvoiceID != "INV-1000" {
		t.Fatalf("reply = %+v", reply)
	}
	want := "Invoice INV-1000 for $4,250.50 is currently Cleared. No anomalies detected."
	if reply.Text != want {
		t.Errorf("text = %q, want %q", reply.Text, want)
	}
}

func TestSuspectedInvoice(t *testing.T) {
	reply := New(fixture()).Resolve("why was inv-1001 flagged?")

	for _, part := range []string{
		"Analysis for INV-1001:",
		"This invoice from Medline was flagged by the Duplicate Inspector.",
		"• Confidence Score: 87.0%",
		"similar amount $12,000.00.",
		"hold payment until manual review",
	} {
		if !strings.Contains(reply.Text, part) {
			t.Errorf("reply missing %q:\n%s", part, reply.Text)
		}
	}
}

func TestMissingInvoice(t *testing.T) {
	reply := New(fixture()).Resolve("check Inv-9999")

	if reply.Intent != KindInvoice || reply.InvoiceID != "INV-9999" {
		t.Fatalf("reply = %+v", reply)
	}
	if !strings.Contains(reply.Text, "couldn't find") || !strings.Contains(reply.Text, "INV-9999") {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestInvoiceBeatsVendor(t *testing.T) {
	reply := New(fixture()).Resolve("Philips invoice INV-1002, help")
	if reply.Intent != KindInvoice {
		t.Fatalf("intent = %s, want invoice", reply.Intent)
	}
}

func TestVendorProfile(t *testing.T) {
	reply := New(fixture()).Resolve("Is MEDLINE risky?")

	if reply.Intent != KindVendor || reply.VendorID != 1 {
		t.Fatalf("reply = %+v", reply)
	}
	want := strings.Join([]string{
		"Vendor Profile: Medline",
		"• Trust Score: 12/100",
		"• Risk Level: High (85)",
		"• Active Invoices: 2",
		"• Total Spend: $1,234,567.80",
		"",
		"⚠️ This vendor has a history of billing irregularities.",
	}, "\n")
	if reply.Text != want {
		t.Errorf("text =\n%s\nwant\n%s", reply.Text, want)
	}
}

func TestVendorRiskLabelThreshold(t *testing.T) {
	r := New(fixture())

	cases := []struct {
		query string
		label string
		trust string
	}{
		{"philips", "Risk Level: Low (50)", "Trust Score: 77/100"},
		{"tell me about stryker", "Risk Level: High (51)", "Trust Score: 33/100"},
	}
	for _, tc := range cases {
		reply := r.Resolve(tc.query)
		if !strings.Contains(reply.Text, tc.label) || !strings.Contains(reply.Text, tc.trust) {
			t.Errorf("Resolve(%q) = %q", tc.query, reply.Text)
		}
		if !strings.HasSuffix(reply.Text, "✅ This vendor is generally reliable.") {
			t.Errorf("Resolve(%q) remark wrong: %q", tc.query, reply.Text)
		}
	}
}

func TestVendorFirstInCollectionOrder(t *testing.T) {
	reply := New(fixture()).Resolve("medline industries")
	if reply.VendorID != 1 {
		t.Fatalf("vendor id = %d, want the first match 1", reply.VendorID)
	}
}

func TestHelp(t *testing.T) {
	r := New(fixture())
	for _, q := range []string{"help", "can you HELP me out", "What can you do?"} {
		reply := r.Resolve(q)
		if reply.Intent != KindHelp || reply.Text != helpText {
			t.Errorf("Resolve(%q) = %+v", q, reply)
		}
	}
}

func TestFallback(t *testing.T) {
	reply := New(fixture()).Resolve("INV-abc and some noise")
	if reply.Intent != KindFallback || reply.Text != fallbackText {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestNilDataset(t *testing.T) {
	r := New(nil)
	if reply := r.Resolve("INV-1"); !strings.Contains(reply.Text, "couldn't find") {
		t.Errorf("invoice on nil data = %q", reply.Text)
	}
	if reply := r.Resolve("medline"); reply.Intent != KindFallback {
		t.Errorf("vendor on nil data = %+v", reply)
	}
}

func TestRiskLabel(t *testing.T) {
	if RiskLabel(50) != "Low" || RiskLabel(51) != "High" || RiskLabel(0) != "Low" || RiskLabel(100) != "High" {
		t.Fatal("risk label threshold must be > 50")
	}
}

func TestGeneratedDatasetClearedLookup(t *testing.T) {
	data := mockdata.Generate(mockdata.WithSeed(3))
	r := New(data)
	for _, inv := range data.Invoices {
		if inv.IsSuspected() {
			continue
		}
		reply := r.Resolve(strings.ToLower(inv.ID))
		if !strings.Contains(reply.Text, inv.ID) || !strings.Contains(reply.Text, "Cleared") {
			t.Fatalf("cleared lookup = %q", reply.Text)
		}
		return
	}
	t.Skip("no cleared invoice generated")
}
