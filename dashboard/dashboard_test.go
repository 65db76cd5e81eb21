package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/config"
	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/widget"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(opts ...StoreOption) *Store {
	base := []StoreOption{
		WithSeed(42),
		WithClock(func() time.Time { return fixedNow }),
		WithPanelOptions(widget.WithTypingDelay(0, 0)),
	}
	return NewStore(append(base, opts...)...)
}

func TestStoreLifecycle(t *testing.T) {
	store := newTestStore()
	sess := store.Create()

	if sess.ID == "" || !sess.CreatedAt.Equal(fixedNow) {
		t.Fatalf("session = %+v", sess)
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d", store.Len())
	}
	got, err := store.Get(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get = %v, %v", got, err)
	}

	if err := store.Delete(sess.ID); err != nil {
		t.Fatal(err)
	}
	if sess.Context().Err() == nil {
		t.Error("Delete must cancel the session context")
	}
	if _, err := store.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if err := store.Delete(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete err = %v", err)
	}
}

func TestSessionsOwnTheirData(t *testing.T) {
	store := newTestStore(WithInvoiceCount(30))
	a, b := store.Create(), store.Create()

	if a.ID == b.ID || a.Data == b.Data {
		t.Fatal("sessions must not share ids or datasets")
	}
	if len(a.Data.Invoices) != 30 {
		t.Errorf("invoices = %d, want 30", len(a.Data.Invoices))
	}
	// same seed, same clock
	if a.Data.Invoices[7].Amount.String() != b.Data.Invoices[7].Amount.String() {
		t.Error("seeded sessions must generate identical data")
	}
}

func TestStoreClose(t *testing.T) {
	store := newTestStore()
	a := store.Create()
	store.Create()
	store.Close()
	if store.Len() != 0 || a.Context().Err() == nil {
		t.Fatal("Close must drop and cancel every session")
	}
}

func TestNewStoreFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 9
	cfg.InvoiceCount = 12
	sess := NewStoreFromConfig(cfg, WithClock(func() time.Time { return fixedNow })).Create()
	if len(sess.Data.Invoices) != 12 {
		t.Fatalf("invoices = %d, want 12", len(sess.Data.Invoices))
	}
}

func TestSessionChat(t *testing.T) {
	sess := newTestStore().Create()
	inv := sess.Data.Invoices[0]

	if !sess.Panel.Submit(sess.Context(), inv.ID) {
		t.Fatal("Submit rejected")
	}
	sess.Panel.Wait()
	msgs := sess.Panel.Messages()
	if len(msgs) != 3 || !strings.Contains(msgs[2].Text, inv.ID) {
		t.Fatalf("transcript = %+v", msgs)
	}
}

func TestSchema(t *testing.T) {
	sess := newTestStore().Create()
	cfg := sess.Schema()

	if cfg.Name != "invoices" || cfg.RecordCount != len(sess.Data.Invoices) {
		t.Fatalf("schema = %+v", cfg)
	}
	if cfg.GetDefaultMeasure() != "amount" || len(cfg.CurrencyMeasures()) != 1 {
		t.Errorf("measures = %+v", cfg.Measures)
	}
	found := false
	for _, d := range cfg.Dimensions {
		if d.Key == "month" {
			found = d.IsTemporal
		}
	}
	if !found {
		t.Error("month dimension must be temporal")
	}
}

func TestQuery(t *testing.T) {
	sess := newTestStore().Create()

	res, err := sess.Query(engine.QuerySpec{Aggregation: "count", Reply: "{count} invoices"})
	if err != nil {
		t.Fatal(err)
	}
	if res.TextData.RawValue != float64(len(sess.Data.Invoices)) {
		t.Errorf("count = %v", res.TextData.RawValue)
	}

	if _, err := sess.Query(engine.QuerySpec{GroupBy: []string{"colour"}}); !errors.Is(err, engine.ErrInvalidQuery) {
		t.Errorf("unknown dimension err = %v", err)
	}
}

func TestCharts(t *testing.T) {
	sess := newTestStore().Create()
	charts, err := sess.Charts()
	if err != nil {
		t.Fatal(err)
	}

	byTitle := make(map[string]*engine.ChartConfig)
	for _, c := range charts {
		byTitle[c.Title] = c
	}

	pie := byTitle["Vendor Risk Distribution"]
	if pie == nil || pie.ChartType != "pie" || len(pie.Series[0].Data) != 4 {
		t.Fatalf("risk pie = %+v", pie)
	}
	var vendors float64
	for _, p := range pie.Series[0].Data[:3] {
		vendors += p.Value
	}
	if int(vendors) != len(sess.Data.Vendors) {
		t.Errorf("risk buckets sum to %v, want %d", vendors, len(sess.Data.Vendors))
	}

	forecast := byTitle["Spend Forecast"]
	if forecast == nil || forecast.ChartType != "line" {
		t.Fatalf("forecast = %+v", forecast)
	}
	if len(forecast.Series) != len(sess.Data.Predictions) {
		t.Errorf("forecast series = %d, want one per vendor", len(forecast.Series))
	}
	if n := len(forecast.Series[0].Data); n != 8 {
		t.Errorf("forecast points = %d, want 6 history + 2 forecast", n)
	}

	if byTitle["Spend by Vendor"] == nil || byTitle["Monthly Spend by Status"] == nil {
		t.Error("invoice charts missing")
	}
}

func TestTables(t *testing.T) {
	sess := newTestStore().Create()
	tables, err := sess.Tables(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 4 {
		t.Fatalf("tables = %d, want 4", len(tables))
	}
	if tables[0].Title != "Vendors" || len(tables[0].Rows) != len(sess.Data.Vendors) {
		t.Errorf("vendor table = %d rows", len(tables[0].Rows))
	}
	if len(tables[1].Rows) != len(sess.Data.Invoices) {
		t.Errorf("invoice table = %d rows", len(tables[1].Rows))
	}
	if tables[2].Title != "Operators" || len(tables[2].Rows) != 3 {
		t.Errorf("operator table = %+v", tables[2])
	}
}

func TestStats(t *testing.T) {
	sess := newTestStore().Create()

	if sess.VendorStats().RiskBuckets != sess.VendorStats().RiskBuckets {
		t.Error("vendor stats must be stable within a session")
	}
	roi := sess.ROI(decimal.NewFromInt(1000))
	if roi.PreventedLoss.GreaterThan(roi.SuspectedAmount) {
		t.Errorf("prevented %s exceeds suspected %s", roi.PreventedLoss, roi.SuspectedAmount)
	}
	total := 0
	for _, src := range sess.Sources() {
		total += src.Count
	}
	if total != len(sess.Data.Invoices) {
		t.Errorf("sources cover %d invoices", total)
	}
}

func TestCancelledSessionDropsReplies(t *testing.T) {
	store := newTestStore(WithPanelOptions(widget.WithTypingDelay(time.Hour, time.Hour)))
	sess := store.Create()
	sess.Panel.Submit(sess.Context(), "help")
	_ = store.Delete(sess.ID)
	sess.Panel.Wait()

	if sess.Panel.Typing() != 0 || len(sess.Panel.Messages()) != 2 {
		t.Fatal("deleted session must drop pending replies")
	}
}
