// Package spendshark is the core of the Spendshark spend-analytics dashboard.
//
// Usage:
//
//	import "github.com/spektr-org/spendshark/dashboard"
//
//	store := dashboard.NewStore(dashboard.WithSeed(42))
//	sess := store.Create()
//	charts, err := sess.Charts()
//
// Layout:
//
//	mockdata   synthetic vendors, invoices, inspectors and spend forecasts
//	stats      KPI summaries and record views over a generated dataset
//	assistant  scripted chat assistant answering invoice/vendor questions
//	widget     chat panel and sidebar state (open/closed, message list)
//	engine     group/aggregate pipeline behind charts and tables
//	schema     dimension/measure metadata for a record view
//	dashboard  per-session context tying the pieces together
//	export     XLSX and CSV writers for dashboard tables
//	server     HTTP API consumed by the presentation layer
//
// Nothing here calls an inference service. Every "intelligent" answer is a
// template filled from the in-memory dataset.
package spendshark
